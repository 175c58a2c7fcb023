package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/roster/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumEmployees = 500
	defaultNumRequests  = 50
	defaultTopN         = 10
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultAcceptShare  = 0.5
	defaultTestTimeout  = 10 * time.Minute
	defaultDSN          = "host=localhost port=5432 user=roster dbname=roster sslmode=disable"
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		dsn          = flag.String("dsn", defaultDSN, "Postgres DSN used to seed the dataset")
		numEmployees = flag.Int("employees", defaultNumEmployees, "Number of employees to generate and seed")
		numRequests  = flag.Int("requests", defaultNumRequests, "Number of staffing requests to generate and seed")
		topN         = flag.Int("top", defaultTopN, "Number of candidates to request per matching run")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle       = flag.Duration("settle", loadtest.DefaultSettleDelay, "Wait between refresh submission and matching")
		acceptShare  = flag.Float64("accept", defaultAcceptShare, "Share of matched requests to accept the top candidate on")
		outputFile   = flag.String("output", "", "Output file for the generated dataset (default: loadtest_dataset_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: loadtest_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:      *baseURL,
		DatabaseDSN:  *dsn,
		NumEmployees: *numEmployees,
		NumRequests:  *numRequests,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		SettleDelay:  *settle,
		AcceptShare:  *acceptShare,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the test
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
