package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type JobType string

const (
	JobTypeSubscribeNewsletter   JobType = "subscribe_newsletter"
	JobTypeSendActivationReceipt JobType = "send_activation_receipt"
)

// ErrJobNotFound is returned by RetryJob when no failed job has the given id.
var ErrJobNotFound = errors.New("job not found in failed queue")

const (
	DefaultMaxRetries     = 5
	DefaultRetryBaseDelay = 15 * time.Second
)

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`

	// raw is the payload as it sits in the processing list.
	raw string
}

// String reads a string field from Data.
func (j *Job) String(key string) (string, bool) {
	v, ok := j.Data[key].(string)
	return v, ok && v != ""
}

type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string

	MaxRetries     int
	RetryBaseDelay time.Duration

	logger zerolog.Logger
	now    func() time.Time
}

func NewQueue(client *redis.Client, queueName string, logger zerolog.Logger) *Queue {
	return &Queue{
		client:         client,
		queueName:      queueName,
		processing:     queueName + ":processing",
		delayed:        queueName + ":delayed",
		failed:         queueName + ":failed",
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		logger:         logger.With().Str("queue", queueName).Logger(),
		now:            time.Now,
	}
}

func (q *Queue) newJob(jobType JobType, data map[string]interface{}) Job {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: q.now(),
	}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) (string, error) {
	job := q.newJob(jobType, data)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return "", fmt.Errorf("failed to push job to queue: %w", err)
	}

	q.logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("Enqueued job")
	return job.ID, nil
}

// Dequeue blocks up to timeout for a job. It returns nil, nil when none arrived.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.raw = result[1]

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		q.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to move job to processing queue")
	}

	return &job, nil
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %w", err)
	}

	q.logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("Completed job")
	return nil
}

// FailJob reschedules the job with exponential backoff, or parks it in the failed
// list once MaxRetries is exhausted.
func (q *Queue) FailJob(ctx context.Context, job *Job, jobErr error) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		q.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to remove job from processing queue")
	}

	job.RetryCount++
	job.Data["last_error"] = jobErr.Error()
	job.Data["failed_at"] = q.now()

	if job.RetryCount <= q.MaxRetries {
		delay := q.RetryBaseDelay * time.Duration(1<<(job.RetryCount-1))
		retryAt := q.now().Add(delay)
		job.Data["next_retry_at"] = retryAt
		job.Data["is_last_attempt"] = job.RetryCount == q.MaxRetries

		jobJSON, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: jobJSON,
		}).Err(); err != nil {
			q.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to add job to delayed queue, adding to failed queue")
			if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
				return fmt.Errorf("failed to push job to failed queue: %w", err)
			}
			return nil
		}

		q.logger.Warn().
			Str("job_id", job.ID).
			Str("type", string(job.Type)).
			Int("retry", job.RetryCount).
			Int("max_retries", q.MaxRetries).
			Dur("delay", delay).
			Msg("Job scheduled for retry")
		return nil
	}

	job.Data["all_retries_exhausted"] = true
	job.Data["final_failure_at"] = q.now()
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}

	q.logger.Error().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Int("retries", job.RetryCount).
		Msg("Job moved to failed queue, all attempts exhausted")
	return nil
}

// ProcessDelayedJobs moves every due delayed job onto the main queue and returns
// how many were moved.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", q.now().Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			q.logger.Warn().Err(err).Msg("Failed to remove job from delayed queue")
			continue
		}
		if removed == 0 {
			// another process promoted it first
			continue
		}
		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			q.logger.Warn().Err(err).Msg("Failed to move delayed job to main queue")
			continue
		}
		moved++
	}

	if moved > 0 {
		q.logger.Debug().Int("moved", moved).Msg("Moved delayed jobs to main queue")
	}
	return moved, nil
}

// FailedJobs lists jobs that exhausted their retries.
func (q *Queue) FailedJobs(ctx context.Context) ([]Job, error) {
	items, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list failed jobs: %w", err)
	}
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		var job Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			q.logger.Warn().Err(err).Msg("Failed to unmarshal job")
			continue
		}
		job.raw = item
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RetryJob moves a failed job back onto the main queue with a fresh retry budget.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	jobs, err := q.FailedJobs(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if job.ID != jobID {
			continue
		}
		if err := q.client.LRem(ctx, q.failed, 1, job.raw).Err(); err != nil {
			return fmt.Errorf("failed to remove job from failed queue: %w", err)
		}

		job.RetryCount = 0
		job.Data["manual_retry"] = true
		job.Data["manual_retry_at"] = q.now()
		delete(job.Data, "all_retries_exhausted")
		delete(job.Data, "final_failure_at")
		delete(job.Data, "is_last_attempt")

		jobJSON, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			return fmt.Errorf("failed to push job to main queue: %w", err)
		}

		q.logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("Manually requeued job")
		return nil
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

func (q *Queue) IsLastAttempt(job *Job) bool {
	if isLast, ok := job.Data["is_last_attempt"].(bool); ok {
		return isLast
	}
	return job.RetryCount >= q.MaxRetries
}

// Stats reports the length of each list.
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Failed     int64 `json:"failed"`
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.Pending, err = q.client.LLen(ctx, q.queueName).Result(); err != nil {
		return s, err
	}
	if s.Processing, err = q.client.LLen(ctx, q.processing).Result(); err != nil {
		return s, err
	}
	if s.Delayed, err = q.client.ZCard(ctx, q.delayed).Result(); err != nil {
		return s, err
	}
	if s.Failed, err = q.client.LLen(ctx, q.failed).Result(); err != nil {
		return s, err
	}
	return s, nil
}

func (q *Queue) Client() *redis.Client {
	return q.client
}
