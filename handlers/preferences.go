package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/plans"
	"edusaas-checkout-api/store"
	"edusaas-checkout-api/utils"
)

type PreferenceHandler struct {
	backend  store.Backend
	visitors *Visitors
	logger   zerolog.Logger
}

func NewPreferenceHandler(backend store.Backend, visitors *Visitors, logger zerolog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		backend:  backend,
		visitors: visitors,
		logger:   logger.With().Str("handler", "preferences").Logger(),
	}
}

func (h *PreferenceHandler) preferences(w http.ResponseWriter, r *http.Request) (*plans.Preferences, bool) {
	vis := h.visitors.Load(r)
	if err := h.visitors.Save(w, r, vis); err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return plans.NewPreferences(store.Scope(h.backend, vis.ID)), true
}

func (h *PreferenceHandler) respond(w http.ResponseWriter, r *http.Request, prefs *plans.Preferences, message string) {
	consented, err := prefs.Consented(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	index, err := prefs.FAQOpenIndex(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Message: message,
		Data: map[string]interface{}{
			"consented":      consented,
			"faq_open_index": index,
		},
	})
}

func (h *PreferenceHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, ok := h.preferences(w, r)
	if !ok {
		return
	}
	h.respond(w, r, prefs, "")
}

// SetConsent records the cookie banner choice.
func (h *PreferenceHandler) SetConsent(w http.ResponseWriter, r *http.Request) {
	var req models.ConsentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	prefs, ok := h.preferences(w, r)
	if !ok {
		return
	}
	if _, err := prefs.SetConsent(r.Context(), *req.Necessary); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, r, prefs, "Consent saved")
}

func (h *PreferenceHandler) SetFAQOpenIndex(w http.ResponseWriter, r *http.Request) {
	var req models.FAQRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	prefs, ok := h.preferences(w, r)
	if !ok {
		return
	}
	if err := prefs.SetFAQOpenIndex(r.Context(), *req.Index); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, r, prefs, "")
}
