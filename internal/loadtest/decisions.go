package loadtest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// applyDecisions accepts the top candidate on a configurable share of the
// completed runs and rejects the last-ranked candidate on the rest. Conflict
// responses are expected once a request fills up and are counted, not failed.
func applyDecisions(ctx context.Context, config *Config, runs []MatchRun, stats *Stats) error {
	log.Printf("Applying decisions on %d match runs (accept share %.0f%%)...",
		len(runs), config.AcceptShare*PercentageMultiplier)

	client := newHTTPClient(config.Timeout)
	acceptorID := uuid.New()

	for i, run := range runs {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during decisions: %w", ctx.Err())
		default:
		}
		if len(run.Candidates) == 0 {
			continue
		}

		if float64(i) < float64(len(runs))*config.AcceptShare {
			top := run.Candidates[0]
			status, err := acceptCandidate(ctx, client, config.BaseURL, top.LogEntryID, acceptorID)
			switch {
			case err != nil:
				log.Printf("accept failed for entry %s: %v", top.LogEntryID, err)
			case status == StatusConflict:
				stats.AcceptsConflicted++
			default:
				stats.AcceptsSucceeded++
			}
			continue
		}

		last := run.Candidates[len(run.Candidates)-1]
		if err := rejectCandidate(ctx, client, config.BaseURL, last.LogEntryID); err != nil {
			log.Printf("reject failed for entry %s: %v", last.LogEntryID, err)
			continue
		}
		stats.RejectsSucceeded++
	}

	log.Printf(`Decisions completed:
   Accepted: %d
   Conflicted: %d
   Rejected: %d
`, stats.AcceptsSucceeded, stats.AcceptsConflicted, stats.RejectsSucceeded)

	return nil
}

// acceptCandidate claims a slot for one log entry and returns the HTTP
// status so the caller can distinguish conflicts from success.
func acceptCandidate(ctx context.Context, client *HTTPClient, baseURL string, logEntryID, acceptorID uuid.UUID) (int, error) {
	url := fmt.Sprintf("%s/matching-logs/%s/accept", baseURL, logEntryID)

	resp, err := client.Post(ctx, url, map[string]string{"acceptor_id": acceptorID.String()})
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK && resp.StatusCode != StatusConflict {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return resp.StatusCode, nil
}

// rejectCandidate records a rejection on one log entry.
func rejectCandidate(ctx context.Context, client *HTTPClient, baseURL string, logEntryID uuid.UUID) error {
	url := fmt.Sprintf("%s/matching-logs/%s/reject", baseURL, logEntryID)

	resp, err := client.Post(ctx, url, map[string]string{"reason": "load test rejection"})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
