package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/metrics"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/submission"
	"edusaas-checkout-api/utils"
)

type TestimonialHandler struct {
	client submission.Client
	logger zerolog.Logger
}

func NewTestimonialHandler(client submission.Client, logger zerolog.Logger) *TestimonialHandler {
	return &TestimonialHandler{
		client: client,
		logger: logger.With().Str("handler", "testimonials").Logger(),
	}
}

// Submit forwards a testimonial to the backend. Testimonials wait for approval
// before they are listed.
func (h *TestimonialHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.TestimonialRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	t, err := h.client.SubmitTestimonial(r.Context(), req)
	if err != nil {
		metrics.RecordSubmission(submission.OpSubmitTestimonial, "failed")
		writeError(w, h.logger, err)
		return
	}
	metrics.RecordSubmission(submission.OpSubmitTestimonial, "succeeded")

	utils.SendJSON(w, http.StatusCreated, models.APIResponse{
		Status:  "success",
		Message: "Thank you! Your testimonial will appear once it is approved.",
		Data:    t,
	})
}

func (h *TestimonialHandler) Latest(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.LatestTestimonials(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Testimonial{}
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: list})
}
