package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/utils"
)

// FailedJobs is the part of the job queue operators need to recover dead jobs.
type FailedJobs interface {
	FailedJobs(ctx context.Context) ([]queue.Job, error)
	RetryJob(ctx context.Context, jobID string) error
}

type JobsHandler struct {
	jobs   FailedJobs
	logger zerolog.Logger
}

func NewJobsHandler(jobs FailedJobs, logger zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		jobs:   jobs,
		logger: logger.With().Str("handler", "jobs").Logger(),
	}
}

// ListFailed returns every job that exhausted its retries.
func (h *JobsHandler) ListFailed(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.FailedJobs(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Data: map[string]interface{}{
			"count": len(jobs),
			"jobs":  jobs,
		},
	})
}

func (h *JobsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.jobs.RetryJob(r.Context(), id); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			utils.SendErrorResponse(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info().Str("job_id", id).Msg("Failed job requeued by operator")
	utils.SendSuccessResponse(w, models.APIResponse{
		Message: "Job requeued",
		Data:    map[string]string{"job_id": id},
	})
}
