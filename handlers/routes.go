package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups every API handler so the routes are registered in one place.
type Handlers struct {
	Plans        *PlanHandler
	Preferences  *PreferenceHandler
	Checkout     *CheckoutHandler
	Cards        *CardHandler
	Testimonials *TestimonialHandler
	Newsletter   *NewsletterHandler
	Health       *HealthHandler
}

// Register mounts the API under api, which is expected to be the /api subrouter.
func (h Handlers) Register(api *mux.Router) {
	api.HandleFunc("/plans", h.Plans.GetPlans).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/plans/selection", h.Plans.GetSelection).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/plans/selection", h.Plans.SelectPlan).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/plans/billing/toggle", h.Plans.ToggleBilling).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/plans/continue", h.Plans.Continue).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/preferences", h.Preferences.GetPreferences).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/preferences/consent", h.Preferences.SetConsent).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/preferences/faq", h.Preferences.SetFAQOpenIndex).Methods(http.MethodPut, http.MethodOptions)

	api.HandleFunc("/checkout", h.Checkout.StartCheckout).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout", h.Checkout.GetCheckout).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/checkout/fields", h.Checkout.UpdateField).Methods(http.MethodPatch, http.MethodOptions)
	api.HandleFunc("/checkout/submit", h.Checkout.SubmitStep).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout/back", h.Checkout.GoBack).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout/same-address", h.Checkout.ToggleSameAddress).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout/addons", h.Checkout.UpdateAddOns).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/checkout/promo", h.Checkout.ApplyPromo).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/checkout/billing", h.Checkout.SetBilling).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/checkout/activate", h.Checkout.Activate).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/cards/detect", h.Cards.Detect).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/testimonials/submit", h.Testimonials.Submit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/testimonials/latest", h.Testimonials.Latest).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/newsletter/subscribe", h.Newsletter.Subscribe).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
}

// RegisterInternal mounts the operator routes. Callers restrict internal by client IP.
func RegisterInternal(internal *mux.Router, jobs *JobsHandler) {
	internal.HandleFunc("/jobs/failed", jobs.ListFailed).Methods(http.MethodGet)
	internal.HandleFunc("/jobs/failed/{id}/retry", jobs.Retry).Methods(http.MethodPost)
}
