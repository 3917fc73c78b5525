package cron

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"denticare/config"
	"denticare/services/annealing"
	"denticare/services/conversation"
	"denticare/utils"
)

const (
	TypeAnnealingAnalyze = "annealing:analyze"
	TypeSessionsSweep    = "sessions:sweep"
)

// InitMaintenanceWorker starts the asynq worker plus the scheduler that
// enqueues the periodic annealing and session-sweep jobs.
func InitMaintenanceWorker(analyzer *annealing.Analyzer, sessions conversation.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAnnealingAnalyze, handleAnalyzeTask(analyzer))
	mux.HandleFunc(TypeSessionsSweep, handleSweepTask(sessions))

	go monitorRedisConnection()
	go runScheduler(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[MaintenanceWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MaintenanceWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MaintenanceWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// runScheduler registers the recurring maintenance jobs.
func runScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})

	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeAnnealingAnalyze, nil)); err != nil {
		log.Printf("[MaintenanceWorker] failed to register annealing job: %v", err)
	}
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeSessionsSweep, nil)); err != nil {
		log.Printf("[MaintenanceWorker] failed to register sweep job: %v", err)
	}

	if err := scheduler.Run(); err != nil {
		log.Printf("[MaintenanceWorker] scheduler stopped: %v", err)
	}
}

func handleAnalyzeTask(analyzer *annealing.Analyzer) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		suggestions, err := analyzer.Analyze(ctx)
		if err != nil {
			utils.GetLogger().Error("scheduled annealing run failed", zap.Error(err))
			return err
		}
		for _, s := range suggestions {
			utils.GetLogger().Warn("improvement suggestion",
				zap.String("kind", s.Kind),
				zap.String("op", s.Op),
				zap.Int("count", s.Count),
				zap.String("remediation", s.Remediation))
		}
		return nil
	}
}

func handleSweepTask(sessions conversation.Service) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		idle := time.Duration(config.AppConfig.SessionIdleTimeoutMinutes) * time.Minute
		abandoned, err := sessions.SweepIdle(ctx, idle)
		if err != nil {
			utils.GetLogger().Error("session sweep failed", zap.Error(err))
			return err
		}
		if abandoned > 0 {
			utils.GetLogger().Info("abandoned idle sessions", zap.Int("count", abandoned))
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[MaintenanceWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
