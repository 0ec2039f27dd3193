package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-intent-be/internal/bootstrap"
	"ai-intent-be/internal/config"
	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/server"
	"ai-intent-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer - DISABLED
	// shutdownTracer := tracer.InitTracer()
	// defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	ctx := context.Background()

	// 4. Recover tasks abandoned by a previous run before workers start.
	if _, err := container.SchedulerService.RecoverAbandoned(ctx); err != nil {
		log.Printf("Warning: failed to recover abandoned tasks: %v", err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	go func() {
		log.Println("Background: Starting Scheduler...")
		container.SchedulerService.Run(ctx)
	}()

	go runPeriodicJobs(ctx, container, cfg)

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}

// runPeriodicJobs drives the time-based machinery: intent status
// transitions, merge scans and nudge generation.
func runPeriodicJobs(ctx context.Context, container *bootstrap.Container, cfg *config.Config) {
	statusTicker := time.NewTicker(15 * time.Minute)
	scanTicker := time.NewTicker(1 * time.Hour)
	defer statusTicker.Stop()
	defer scanTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTicker.C:
			changed, err := container.StoreService.RefreshIntentStatuses(ctx,
				cfg.Suggestion.DormantAfter, cfg.Suggestion.ExpireAfter)
			if err != nil {
				log.Printf("Background: status refresh failed: %v", err)
			} else if changed > 0 {
				log.Printf("Background: %d intent status transitions applied", changed)
			}
		case <-scanTicker.C:
			for _, taskType := range []string{constant.TaskMergeScan, constant.TaskNudgeGeneration} {
				if res, err := container.SchedulerService.Enqueue(ctx, taskType, nil, nil, priorityFor(taskType), nil); err != nil {
					log.Printf("Background: failed to enqueue %s: %v", taskType, err)
				} else if out, _ := json.Marshal(res); len(out) > 0 {
					log.Printf("Background: %s -> %s", taskType, out)
				}
			}
		}
	}
}

func priorityFor(taskType string) int {
	if taskType == constant.TaskMergeScan {
		return constant.PriorityMergeScan
	}
	return constant.PriorityNudgeGeneration
}
