package cron

import (
	"context"
	"time"

	"sportivox/config"
	"sportivox/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt returns the asynq connection for the task queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewServeMux routes task types to their handlers.
func NewServeMux(reconciler *tasks.Reconciler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSettlementReconcile, reconciler.HandleReconcileTask)
	mux.HandleFunc(tasks.TypeSettlementRecord, reconciler.HandleRecordTask)
	return mux
}

// InitSettlementWorker runs the reconcile worker in background and returns
// a function that stops it.
func InitSettlementWorker(reconciler *tasks.Reconciler, logger *zap.Logger) func() {
	log := logger.Named("worker")
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
				return time.Duration(n*n) * 10 * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Warn("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)
	mux := NewServeMux(reconciler)

	go func() {
		log.Info("starting settlement worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			log.Error("worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				log.Error("max worker start attempts reached, reconciliation disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return srv.Shutdown
}
