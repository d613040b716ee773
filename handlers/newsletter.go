package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/logging"
	"edusaas-checkout-api/metrics"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/services/submission"
	"edusaas-checkout-api/utils"
)

type NewsletterHandler struct {
	client submission.Client
	jobs   JobEnqueuer
	dev    bool
	logger zerolog.Logger
}

// NewNewsletterHandler subscribes through the job queue when jobs is set and calls
// the backend inline otherwise.
func NewNewsletterHandler(client submission.Client, jobs JobEnqueuer, dev bool, logger zerolog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		client: client,
		jobs:   jobs,
		dev:    dev,
		logger: logger.With().Str("handler", "newsletter").Logger(),
	}
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.NewsletterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.jobs != nil {
		jobID, err := h.jobs.Enqueue(r.Context(), queue.JobTypeSubscribeNewsletter, map[string]interface{}{
			"email": req.Email,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Info().
			Str("job_id", jobID).
			Str("email", logging.Redact(req.Email, h.dev)).
			Msg("Newsletter subscription queued")
		utils.SendJSON(w, http.StatusAccepted, models.APIResponse{
			Status:  "success",
			Message: "Thanks for subscribing! Check your inbox for a confirmation.",
		})
		return
	}

	resp, err := h.client.SubscribeNewsletter(r.Context(), req)
	if err != nil {
		metrics.RecordSubmission(submission.OpSubscribeNewsletter, "failed")
		writeError(w, h.logger, err)
		return
	}
	metrics.RecordSubmission(submission.OpSubscribeNewsletter, "succeeded")
	message := resp.Message
	if message == "" {
		message = "Thanks for subscribing!"
	}
	utils.SendSuccessResponse(w, models.APIResponse{Message: message})
}
