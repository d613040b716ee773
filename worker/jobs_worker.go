package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/metrics"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/services/email"
	"edusaas-checkout-api/services/submission"
)

// JobQueue is the part of queue.Queue the worker needs.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	CompleteJob(ctx context.Context, job *queue.Job) error
	FailJob(ctx context.Context, job *queue.Job, err error) error
	ProcessDelayedJobs(ctx context.Context) (int, error)
}

// Worker handles background newsletter and receipt jobs.
type Worker struct {
	queue      JobQueue
	newsletter submission.Client
	mailer     email.EmailSender
	logger     zerolog.Logger

	PollTimeout   time.Duration
	DelayedPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewWorker(q JobQueue, newsletter submission.Client, mailer email.EmailSender, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:         q,
		newsletter:    newsletter,
		mailer:        mailer,
		logger:        logger.With().Str("component", "worker").Logger(),
		PollTimeout:   5 * time.Second,
		DelayedPeriod: 10 * time.Second,
	}
}

// Start begins processing jobs with concurrency goroutines plus the delayed-job promoter.
func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i)
	}
	w.wg.Add(1)
	go w.promoteDelayed(ctx)

	w.logger.Info().Int("concurrency", concurrency).Msg("Started worker goroutines")
}

// Stop signals every goroutine and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}

	w.logger.Info().Msg("Stopping worker...")
	cancel()
	w.wg.Wait()
}

func (w *Worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	logger := w.logger.With().Int("worker_id", workerID).Logger()
	logger.Debug().Msg("Worker starting")

	for {
		if ctx.Err() != nil {
			logger.Debug().Msg("Worker shutting down")
			return
		}

		job, err := w.queue.Dequeue(ctx, w.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("Error dequeuing job")
			sleep(ctx, time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.handle(logger, job)
	}
}

func (w *Worker) handle(logger zerolog.Logger, job *queue.Job) {
	logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("Processing job")

	// In-flight jobs finish even during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if jobErr := w.ProcessJob(ctx, job); jobErr != nil {
		metrics.RecordJob(string(job.Type), "failed")
		logger.Error().Err(jobErr).Str("job_id", job.ID).Msg("Error processing job")
		if err := w.queue.FailJob(ctx, job, jobErr); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("Error marking job as failed")
		}
		return
	}

	metrics.RecordJob(string(job.Type), "completed")
	if err := w.queue.CompleteJob(ctx, job); err != nil {
		logger.Error().Err(err).Str("job_id", job.ID).Msg("Error marking job as complete")
	}
}

func (w *Worker) promoteDelayed(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.DelayedPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.ProcessDelayedJobs(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("Error promoting delayed jobs")
			}
		}
	}
}

// ProcessJob runs a single job.
func (w *Worker) ProcessJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSubscribeNewsletter:
		return w.processSubscribeNewsletter(ctx, job)
	case queue.JobTypeSendActivationReceipt:
		return w.processActivationReceipt(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processSubscribeNewsletter(ctx context.Context, job *queue.Job) error {
	addr, ok := job.String("email")
	if !ok {
		return fmt.Errorf("invalid email in job data")
	}

	// The backend already accepted this address on an earlier attempt.
	if done, _ := job.Data["subscribed"].(bool); !done {
		if _, err := w.newsletter.SubscribeNewsletter(ctx, models.NewsletterRequest{Email: addr}); err != nil {
			metrics.RecordSubmission(submission.OpSubscribeNewsletter, "failed")
			return fmt.Errorf("newsletter subscription failed: %w", err)
		}
		metrics.RecordSubmission(submission.OpSubscribeNewsletter, "succeeded")
		job.Data["subscribed"] = true
	}

	if err := w.mailer.SendNewsletterConfirmation(addr); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

func (w *Worker) processActivationReceipt(job *queue.Job) error {
	to, ok := job.String("email")
	if !ok {
		return fmt.Errorf("invalid email in job data")
	}
	str := func(key string) string {
		v, _ := job.String(key)
		return v
	}
	receipt := email.Receipt{
		Name:        str("name"),
		Institution: str("institution"),
		Plan:        str("plan"),
		Billing:     str("billing"),
		Total:       str("total"),
		MaskedCard:  str("masked_card"),
		RenewsOn:    str("renews_on"),
		Token:       str("token"),
	}
	if err := w.mailer.SendActivationReceipt(to, receipt); err != nil {
		return fmt.Errorf("failed to send activation receipt: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
