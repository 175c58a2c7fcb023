package loadtest

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Tier band margins relative to the priority threshold.
const (
	strongMargin     = 15
	acceptableMargin = 10
)

// verifyResults checks ranking and audit-trail consistency for every
// completed run: ranks are dense and score-ordered, tiers agree with the
// returned threshold, and the persisted log entries cover the candidates.
func verifyResults(ctx context.Context, config *Config, runs []MatchRun, stats *Stats) error {
	log.Println("Verifying results...")

	if len(runs) == 0 {
		return fmt.Errorf("no match runs to verify")
	}

	client := newHTTPClient(config.Timeout)
	var warnings int

	for _, run := range runs {
		if err := verifyRanking(run); err != nil {
			warnings++
			log.Printf("ranking warning for request %s: %v", run.StaffingRequestID, err)
		}

		logs, err := retrieveLogs(ctx, client, config.BaseURL, run.StaffingRequestID.String())
		if err != nil {
			warnings++
			log.Printf("log retrieval warning for request %s: %v", run.StaffingRequestID, err)
			continue
		}
		stats.LogEntriesRetrieved += logs.Count
		if err := verifyAuditTrail(run, logs); err != nil {
			warnings++
			log.Printf("audit warning for request %s: %v", run.StaffingRequestID, err)
		}
	}

	displayTopCandidates(runs, config.Verbose)

	if warnings > 0 {
		log.Printf("Result verification completed with %d warnings", warnings)
	} else {
		log.Println("Result verification completed")
	}
	return nil
}

// verifyRanking checks dense rank assignment, score ordering, and tier
// banding within one run.
func verifyRanking(run MatchRun) error {
	for i, c := range run.Candidates {
		if c.Rank != i+1 {
			return fmt.Errorf("candidate %d has rank %d, want %d", i, c.Rank, i+1)
		}
		if i > 0 && c.TotalScore > run.Candidates[i-1].TotalScore {
			return fmt.Errorf("candidate %d outscores candidate %d", i, i-1)
		}

		var want string
		switch {
		case c.TotalScore >= run.PriorityThreshold+strongMargin:
			want = "STRONG"
		case c.TotalScore >= run.PriorityThreshold:
			want = "RECOMMENDED"
		case c.TotalScore >= run.PriorityThreshold-acceptableMargin:
			want = "ACCEPTABLE"
		default:
			want = "WEAK"
		}
		if c.Tier != want {
			return fmt.Errorf("candidate %d scored %.2f against threshold %.0f: tier %s, want %s",
				i, c.TotalScore, run.PriorityThreshold, c.Tier, want)
		}
	}
	return nil
}

// verifyAuditTrail checks that every returned candidate has a persisted log
// entry under the run it came from.
func verifyAuditTrail(run MatchRun, logs *LogsResponse) error {
	byID := make(map[string]bool, logs.Count)
	for _, entry := range logs.Entries {
		if entry.RunID == run.RunID {
			byID[entry.ID.String()] = true
		}
	}
	for _, c := range run.Candidates {
		if !byID[c.LogEntryID.String()] {
			return fmt.Errorf("candidate rank %d has no log entry %s under run %s", c.Rank, c.LogEntryID, run.RunID)
		}
	}
	return nil
}

// displayTopCandidates shows the strongest candidates across all runs.
func displayTopCandidates(runs []MatchRun, verbose bool) {
	type scored struct {
		requestID string
		Candidate
	}
	var all []scored
	for _, run := range runs {
		for _, c := range run.Candidates {
			all = append(all, scored{requestID: run.StaffingRequestID.String(), Candidate: c})
		}
	}
	if len(all) == 0 {
		log.Println("No candidates returned across all runs")
		return
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].TotalScore > all[j].TotalScore
	})

	topN := 10
	if len(all) < topN {
		topN = len(all)
	}
	log.Printf("Top %d candidates across all runs:", topN)
	for i := 0; i < topN; i++ {
		c := all[i]
		log.Printf("   %d. employee %s - score %.2f (%s) for request %s",
			i+1, c.EmployeeID, c.TotalScore, c.Tier, c.requestID)
	}

	if verbose {
		sum := 0.0
		for _, c := range all {
			sum += c.TotalScore
		}
		log.Printf(`Score statistics:
   Average: %.2f
   Maximum: %.2f
   Minimum: %.2f
`, sum/float64(len(all)), all[0].TotalScore, all[len(all)-1].TotalScore)
	}
}
