package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/roster/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	datasetPermission   = 0600
)

// Run executes the complete matching load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting roster matching load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("employees", config.NumEmployees),
		logger.Int("requests", config.NumRequests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the dataset
	dataset, err := generateDataset(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}

	// Step 3: Seed it into the service database
	if err := seedDataset(ctx, config, dataset); err != nil {
		return fmt.Errorf("dataset seeding failed: %w", err)
	}

	// Step 4: Submit profile refreshes so the service materializes profiles
	if err := submitRefreshes(ctx, config, dataset, stats); err != nil {
		return fmt.Errorf("refresh submission failed: %w", err)
	}

	// Step 5: Wait for the refresh queue to drain
	logger.Get().Info(ctx, "waiting for refreshes to be processed",
		logger.Duration("settleDelay", config.SettleDelay))
	time.Sleep(config.SettleDelay)

	// Step 6: Run matches concurrently
	runs, err := runMatches(ctx, config, dataset, stats)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	// Step 7: Verify rankings and the audit trail
	if err := verifyResults(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Exercise accept and reject decisions
	if err := applyDecisions(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("decision application failed: %w", err)
	}

	// Step 9: Save the dataset to file for replay
	if err := saveDatasetToFile(ctx, config, dataset); err != nil {
		logger.Get().Warn(ctx, "failed to save dataset to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveDatasetToFile saves the generated dataset to a JSON file.
func saveDatasetToFile(ctx context.Context, config *Config, dataset *Dataset) error {
	if len(dataset.Employees) == 0 {
		return fmt.Errorf("no dataset to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "loadtest_dataset_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, data, datasetPermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var matchSuccessRate, runsPerSecond float64

	totalRuns := stats.MatchRunsCompleted + stats.MatchRunsFailed
	if totalRuns > 0 {
		matchSuccessRate = float64(stats.MatchRunsCompleted) / float64(totalRuns) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		runsPerSecond = float64(totalRuns) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("employeesGenerated", stats.EmployeesGenerated),
		logger.Int("evaluationsSeeded", stats.EvaluationsSeeded),
		logger.Int("requestsGenerated", stats.RequestsGenerated),
		logger.Int("refreshesSubmitted", stats.RefreshesSubmitted),
		logger.Int("refreshesAccepted", stats.RefreshesAccepted),
		logger.Int("refreshesDuplicate", stats.RefreshesDuplicate),
		logger.Int("refreshesFailed", stats.RefreshesFailed),
		logger.Int("matchRunsCompleted", stats.MatchRunsCompleted),
		logger.Int("matchRunsFailed", stats.MatchRunsFailed),
		logger.Int("candidatesReturned", stats.CandidatesReturned),
		logger.Int("acceptsSucceeded", stats.AcceptsSucceeded),
		logger.Int("acceptsConflicted", stats.AcceptsConflicted),
		logger.Int("rejectsSucceeded", stats.RejectsSucceeded),
		logger.Int("logEntriesRetrieved", stats.LogEntriesRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchSuccessRate", matchSuccessRate),
		logger.Float64("runsPerSecond", runsPerSecond))
}
