package loadtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runMatches triggers a matching run for every seeded staffing request
// concurrently and collects the ranked results.
func runMatches(ctx context.Context, config *Config, ds *Dataset, stats *Stats) ([]MatchRun, error) {
	log.Printf("Running matches for %d staffing requests with %d workers...", len(ds.Requests), config.Workers)

	client := newHTTPClient(config.Timeout)

	runs := make([]MatchRun, len(ds.Requests))
	var (
		completed int64
		failed    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					requestID := ds.Requests[index].ID
					run, err := runSingleMatch(ctx, client, config, requestID.String())
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("match failed for request %s: %v", requestID, err)
						}
					} else {
						runs[index] = run
						atomic.AddInt64(&completed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&completed) + atomic.LoadInt64(&failed)
						log.Printf("Match progress: %d/%d (completed: %d, failed: %d)",
							total, len(ds.Requests), atomic.LoadInt64(&completed), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range ds.Requests {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out failed runs.
	validRuns := make([]MatchRun, 0, len(runs))
	for _, run := range runs {
		if run.RunID != uuid.Nil {
			validRuns = append(validRuns, run)
			stats.CandidatesReturned += len(run.Candidates)
		}
	}

	stats.MatchRunsCompleted = len(validRuns)
	stats.MatchRunsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Matching completed:
   Runs: %d
   Failed: %d
   Candidates: %d
`, stats.MatchRunsCompleted, stats.MatchRunsFailed, stats.CandidatesReturned)

	return validRuns, nil
}

// runSingleMatch executes one matching run.
func runSingleMatch(ctx context.Context, client *HTTPClient, config *Config, requestID string) (MatchRun, error) {
	url := fmt.Sprintf("%s/staffing-needs/%s/match", config.BaseURL, requestID)

	resp, err := client.Post(ctx, url, map[string]int{"top_n": config.TopN})
	if err != nil {
		return MatchRun{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return MatchRun{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return MatchRun{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var run MatchRun
	if err := unmarshalJSON(body, &run); err != nil {
		return MatchRun{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return run, nil
}

// retrieveLogs fetches the persisted audit entries for one staffing request.
func retrieveLogs(ctx context.Context, client *HTTPClient, baseURL, requestID string) (*LogsResponse, error) {
	url := fmt.Sprintf("%s/matching-logs?staffing_request_id=%s", baseURL, requestID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var logs LogsResponse
	if err := unmarshalJSON(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &logs, nil
}
