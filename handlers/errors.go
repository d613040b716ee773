package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/services/activation"
	"edusaas-checkout-api/services/checkout"
	"edusaas-checkout-api/services/plans"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/services/submission"
	"edusaas-checkout-api/utils"
	"edusaas-checkout-api/validation"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	var reqErr *validation.RequestError
	var subErr *submission.Error
	switch {
	case errors.As(err, &reqErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &subErr):
		return http.StatusBadGateway
	case errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrUnknownField),
		errors.Is(err, pricing.ErrUnknownPlan),
		errors.Is(err, pricing.ErrUnknownAddOn),
		errors.Is(err, plans.ErrInvalidHandoff):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrNoAddOns),
		errors.Is(err, checkout.ErrCompleted),
		errors.Is(err, activation.ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, plans.ErrNoConsent):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Internal failures are logged and hidden.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
		utils.SendErrorResponse(w, status, "Internal server error")
		return
	}

	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		utils.SendErrorResponseWithData(w, status, "Invalid request", reqErr.Fields)
		return
	}

	var subErr *submission.Error
	if errors.As(err, &subErr) {
		logger.Warn().Err(err).Str("op", subErr.Op).Int("upstream_status", subErr.Status).Msg("Backend call failed")
		utils.SendErrorResponse(w, status, subErr.Message)
		return
	}

	utils.SendErrorResponse(w, status, err.Error())
}

// decode reads a JSON body into dst and checks its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &validation.RequestError{Fields: map[string]string{"body": "json"}}
	}
	return validation.Struct(dst)
}
