package loadtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/roster/internal/domain/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// seedBatchSize bounds the number of rows per insert statement.
const seedBatchSize = 500

// seedDataset writes the generated fixture straight into the service
// database. Identity rows, evaluations, and history are owned by upstream
// systems in production, so the seeder bypasses the API on purpose.
func seedDataset(ctx context.Context, config *Config, ds *Dataset) error {
	log.Printf("Seeding %d employees, %d evaluations, %d requests into database...",
		len(ds.Employees), len(ds.Evaluations), len(ds.Requests))

	db, err := gorm.Open(postgres.Open(config.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	tx := db.WithContext(ctx)
	for _, step := range []struct {
		name string
		rows interface{}
	}{
		{"employees", ds.Employees},
		{"evaluations", ds.Evaluations},
		{"performance records", ds.Performance},
		{"assignments", ds.Assignments},
		{"staffing requests", ds.Requests},
	} {
		if err := tx.CreateInBatches(step.rows, seedBatchSize).Error; err != nil {
			return fmt.Errorf("failed to seed %s: %w", step.name, err)
		}
	}

	log.Println("Dataset seeded")
	return nil
}

// submitRefreshes submits a profile refresh for every seeded employee
// concurrently using a worker pool. Duplicate submissions are expected when
// the queue is still draining and are counted separately.
func submitRefreshes(ctx context.Context, config *Config, ds *Dataset, stats *Stats) error {
	log.Printf("Submitting %d profile refreshes with %d workers...", len(ds.Employees), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	taskChan := make(chan model.Employee, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for emp := range taskChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleRefresh(ctx, client, config.BaseURL, emp)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						log.Printf("Refresh progress: %d/%d submitted (accepted: %d, duplicate: %d, failed: %d)",
							total, len(ds.Employees), atomic.LoadInt64(&accepted),
							atomic.LoadInt64(&duplicate), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for _, emp := range ds.Employees {
			select {
			case <-ctx.Done():
				return
			case taskChan <- emp:
			}
		}
	}()

	wg.Wait()

	stats.RefreshesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RefreshesAccepted = int(atomic.LoadInt64(&accepted))
	stats.RefreshesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RefreshesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Refresh submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.RefreshesAccepted, stats.RefreshesDuplicate, stats.RefreshesFailed)

	return nil
}

// submitSingleRefresh submits one profile refresh and returns the result.
func submitSingleRefresh(ctx context.Context, client *HTTPClient, baseURL string, emp model.Employee) string {
	url := fmt.Sprintf("%s/employees/%s/refresh", baseURL, emp.ID)
	resp, err := client.Post(ctx, url, map[string]string{"kind": "profile"})
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "accepted"
	case StatusOK:
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
