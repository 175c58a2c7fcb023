package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/roster/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the matching load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Roster Matching Load Test Tool
==============================

A concurrent tool for seeding a realistic staffing dataset and exercising
the matching, decision, and refresh endpoints of a running roster service.

Usage:
  go run cmd/loadtest/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -dsn string
        Postgres DSN used to seed the dataset (default matches the service default)
  -employees int
        Number of employees to generate and seed (default 500)
  -requests int
        Number of staffing requests to generate and seed (default 50)
  -top int
        Number of candidates to request per matching run (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        Wait between refresh submission and matching (default 10s)
  -accept float
        Share of matched requests to accept the top candidate on (default 0.5)
  -output string
        Output file for the generated dataset (default: loadtest_dataset_TIMESTAMP.json)
  -log string
        Log file for test output (default: loadtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/loadtest/main.go

  # Larger dataset with more workers
  go run cmd/loadtest/main.go -employees 5000 -requests 200 -workers 16

  # Point at a non-local service and database
  go run cmd/loadtest/main.go -url http://staging:9080 -dsn "host=staging-db user=roster dbname=roster"
`)
}
