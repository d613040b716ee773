package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/card"
	"edusaas-checkout-api/utils"
)

type CardHandler struct {
	logger zerolog.Logger
}

func NewCardHandler(logger zerolog.Logger) *CardHandler {
	return &CardHandler{logger: logger.With().Str("handler", "cards").Logger()}
}

type cardDetection struct {
	Brand     card.Brand `json:"brand"`
	Known     bool       `json:"known"`
	Formatted string     `json:"formatted"`
	Mask      string     `json:"mask"`
	MaxLength int        `json:"max_length"`
	CVVLength int        `json:"cvv_length"`
}

// Detect formats a partially typed card number. The number travels in the body so it
// never lands in access logs.
func (h *CardHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req models.CardDetectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	formatted, brand := card.Format(req.Number)
	spec := card.SpecFor(brand)
	utils.SendSuccessResponse(w, models.APIResponse{
		Data: cardDetection{
			Brand:     brand,
			Known:     brand.Known(),
			Formatted: formatted,
			Mask:      spec.Mask,
			MaxLength: spec.MaxLength,
			CVVLength: spec.CVVLength,
		},
	})
}
