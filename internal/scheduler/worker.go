package scheduler

import (
	"context"
	"fmt"

	"tender_portal_backend/platform/config"
	"tender_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper advances due reverse auctions. Satisfied by the workflow engine.
type Sweeper interface {
	AdvanceScheduledToStarted(ctx context.Context) (int, error)
	AdvanceStartedToEnded(ctx context.Context) (int, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskRAAdvanceStart, w.handleRAAdvanceStart)
	mux.HandleFunc(TaskRAAdvanceEnd, w.handleRAAdvanceEnd)

	return w, nil
}

// handleRAAdvanceStart runs the full start sweep rather than advancing one
// auction. The sweep is idempotent, so a duplicate or late task is harmless
// and a single task catches every auction that is due by then.
func (w *Worker) handleRAAdvanceStart(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseRAAdvancePayload(task); err != nil {
		return err
	}
	_, err := w.sweeper.AdvanceScheduledToStarted(ctx)
	return err
}

func (w *Worker) handleRAAdvanceEnd(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseRAAdvancePayload(task); err != nil {
		return err
	}
	_, err := w.sweeper.AdvanceStartedToEnded(ctx)
	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
