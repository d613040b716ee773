package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/plans"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/store"
	"edusaas-checkout-api/utils"
)

type PlanHandler struct {
	catalog  *pricing.Catalog
	backend  store.Backend
	visitors *Visitors
	logger   zerolog.Logger
}

func NewPlanHandler(catalog *pricing.Catalog, backend store.Backend, visitors *Visitors, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		catalog:  catalog,
		backend:  backend,
		visitors: visitors,
		logger:   logger.With().Str("handler", "plans").Logger(),
	}
}

type planCard struct {
	ID           pricing.PlanID  `json:"id"`
	MonthlyPrice string          `json:"monthly_price"`
	HasAddOns    bool            `json:"has_add_ons"`
	Price        plans.CardPrice `json:"price"`
}

type selectionResponse struct {
	Plan     pricing.PlanID `json:"plan"`
	Billing  string         `json:"billing"`
	IsAnnual bool           `json:"is_annual"`
	Checkout string         `json:"checkout_path"`
}

func newSelectionResponse(sel plans.Selection) selectionResponse {
	return selectionResponse{
		Plan:     sel.Plan,
		Billing:  plans.BillingValue(sel.IsAnnual),
		IsAnnual: sel.IsAnnual,
		Checkout: plans.Handoff(sel).Path(),
	}
}

// selector binds the plan selector to the caller's visitor id.
func (h *PlanHandler) selector(w http.ResponseWriter, r *http.Request) (*plans.Selector, bool) {
	vis := h.visitors.Load(r)
	if err := h.visitors.Save(w, r, vis); err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return plans.NewSelector(h.catalog, store.Scope(h.backend, vis.ID)), true
}

// GetPlans lists the plan cards priced for the visitor's billing cycle.
func (h *PlanHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selector(w, r)
	if !ok {
		return
	}
	current, err := sel.Current(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	annual := current.IsAnnual
	switch r.URL.Query().Get("billing") {
	case plans.BillingAnnual:
		annual = true
	case plans.BillingMonthly:
		annual = false
	}

	cards := make([]planCard, 0, len(h.catalog.Plans()))
	for _, p := range h.catalog.Plans() {
		cards = append(cards, planCard{
			ID:           p.ID,
			MonthlyPrice: p.MonthlyPrice.StringFixed(2),
			HasAddOns:    p.HasAddOns(),
			Price:        plans.PriceForCard(p, annual),
		})
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Data: map[string]interface{}{
			"plans":     cards,
			"billing":   plans.BillingValue(annual),
			"selection": newSelectionResponse(current),
		},
	})
}

func (h *PlanHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selector(w, r)
	if !ok {
		return
	}
	current, err := sel.Current(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: newSelectionResponse(current)})
}

func (h *PlanHandler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	var req models.PlanSelectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sel, ok := h.selector(w, r)
	if !ok {
		return
	}
	current, err := sel.SelectPlan(r.Context(), req.Plan)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Message: "Plan selected", Data: newSelectionResponse(current)})
}

func (h *PlanHandler) ToggleBilling(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selector(w, r)
	if !ok {
		return
	}
	current, err := sel.ToggleBilling(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: newSelectionResponse(current)})
}

// Continue returns the checkout route for the current selection.
func (h *PlanHandler) Continue(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selector(w, r)
	if !ok {
		return
	}
	handoff, err := sel.Continue(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Data: map[string]string{
			"plan":     string(handoff.Plan),
			"billing":  plans.BillingValue(handoff.IsAnnual),
			"redirect": handoff.Path(),
		},
	})
}
