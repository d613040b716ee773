package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/metrics"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/services/activation"
	"edusaas-checkout-api/services/checkout"
	"edusaas-checkout-api/services/plans"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/store"
	"edusaas-checkout-api/utils"
)

// JobEnqueuer is the part of the job queue the handlers write to.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) (string, error)
}

type CheckoutHandler struct {
	catalog   *pricing.Catalog
	registry  *checkout.Registry
	backend   store.Backend
	activator *activation.Service
	jobs      JobEnqueuer
	visitors  *Visitors
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCheckoutHandler wires the checkout endpoints. jobs may be nil, in which case
// activation receipts are not mailed.
func NewCheckoutHandler(
	catalog *pricing.Catalog,
	registry *checkout.Registry,
	backend store.Backend,
	activator *activation.Service,
	jobs JobEnqueuer,
	visitors *Visitors,
	logger zerolog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		catalog:   catalog,
		registry:  registry,
		backend:   backend,
		activator: activator,
		jobs:      jobs,
		visitors:  visitors,
		logger:    logger.With().Str("handler", "checkout").Logger(),
		now:       time.Now,
	}
}

// update loads the visitor's checkout, runs fn under the registry lock and returns
// the resulting view.
func (h *CheckoutHandler) update(w http.ResponseWriter, r *http.Request, fn func(s *checkout.Session) error) (checkout.View, error) {
	vis := h.visitors.Load(r)
	if err := h.visitors.Save(w, r, vis); err != nil {
		return checkout.View{}, err
	}
	if vis.CheckoutID == "" {
		return checkout.View{}, checkout.ErrSessionNotFound
	}

	var view checkout.View
	err := h.registry.Update(vis.CheckoutID, func(s *checkout.Session) error {
		if s.Language != vis.Language {
			s.SetLanguage(vis.Language)
		}
		if err := fn(s); err != nil {
			return err
		}
		view = s.View()
		return nil
	})
	return view, err
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, view checkout.View, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: view})
}

// StartCheckout opens a new checkout from the plan and billing query parameters.
// Without them the visitor's saved plan selection is used.
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	vis := h.visitors.Load(r)

	var handoff plans.Handoff
	q := r.URL.Query()
	if q.Get("plan") == "" && q.Get("billing") == "" {
		sel, err := plans.NewSelector(h.catalog, store.Scope(h.backend, vis.ID)).Current(r.Context())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		handoff = plans.Handoff(sel)
	} else {
		var err error
		if handoff, err = plans.ParseHandoff(h.catalog, q); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	sess, err := checkout.NewSession(h.catalog, handoff.Plan, handoff.IsAnnual,
		checkout.WithClock(h.now),
		checkout.WithLanguage(vis.Language),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.registry.Put(sess)

	if vis.CheckoutID != "" && vis.CheckoutID != sess.ID {
		h.registry.Delete(vis.CheckoutID)
	}
	vis.CheckoutID = sess.ID
	if err := h.visitors.Save(w, r, vis); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().
		Str("checkout_id", sess.ID).
		Str("plan", string(handoff.Plan)).
		Str("billing", plans.BillingValue(handoff.IsAnnual)).
		Msg("Checkout started")

	utils.SendJSON(w, http.StatusCreated, models.APIResponse{
		Status:  "success",
		Message: "Checkout started",
		Data:    sess.View(),
	})
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.update(w, r, func(*checkout.Session) error { return nil })
	h.respond(w, view, err)
}

// UpdateField stores one form edit.
func (h *CheckoutHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req models.FieldUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	view, err := h.update(w, r, func(s *checkout.Session) error {
		return s.SetField(checkout.Step(req.Step), req.Field, req.Value)
	})
	h.respond(w, view, err)
}

// SubmitStep validates the current step. A rejected step answers 422 with the
// session view so the form can show its errors.
func (h *CheckoutHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	var (
		step      checkout.Step
		advanced  bool
		completed bool
		kinds     map[string]string
	)
	view, err := h.update(w, r, func(s *checkout.Session) error {
		wasCompleted := s.Completed
		step = s.Step
		advanced = s.SubmitStep()
		completed = s.Completed && !wasCompleted
		if !advanced {
			errs := s.Errors.For(step)
			kinds = make(map[string]string, len(errs))
			for field, kind := range errs {
				kinds[field] = string(kind)
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	metrics.RecordStep(step.String(), advanced)
	if !advanced {
		for field, kind := range kinds {
			metrics.RecordValidationError(field, kind)
		}
		utils.SendJSON(w, http.StatusUnprocessableEntity, models.APIResponse{
			Status:  "error",
			Message: "Please correct the highlighted fields",
			Data: map[string]interface{}{
				"checkout":    view,
				"error_kinds": kinds,
			},
		})
		return
	}

	if completed {
		metrics.RecordCompleted(string(view.Summary.Plan), view.Summary.Billing)
		h.logger.Info().Str("checkout_id", view.ID).Str("total", view.Summary.Total.Formatted).Msg("Checkout completed")
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: view})
}

func (h *CheckoutHandler) GoBack(w http.ResponseWriter, r *http.Request) {
	view, err := h.update(w, r, func(s *checkout.Session) error {
		s.GoBack()
		return nil
	})
	h.respond(w, view, err)
}

func (h *CheckoutHandler) ToggleSameAddress(w http.ResponseWriter, r *http.Request) {
	var req models.SameAddressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	view, err := h.update(w, r, func(s *checkout.Session) error {
		if s.Completed {
			return checkout.ErrCompleted
		}
		s.ToggleUseSameAddress(*req.Checked)
		return nil
	})
	h.respond(w, view, err)
}

// UpdateAddOns sets add-on quantities. Nothing changes unless every id is offered by
// the plan.
func (h *CheckoutHandler) UpdateAddOns(w http.ResponseWriter, r *http.Request) {
	var req models.AddOnsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ids := make([]string, 0, len(req.AddOns))
	for id := range req.AddOns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	view, err := h.update(w, r, func(s *checkout.Session) error {
		if s.Completed {
			return checkout.ErrCompleted
		}
		if !s.Plan.HasAddOns() {
			return checkout.ErrNoAddOns
		}
		offered := make(map[pricing.AddOnID]bool, len(s.AddOns))
		for _, line := range s.AddOns {
			offered[line.ID] = true
		}
		for _, id := range ids {
			if !offered[pricing.AddOnID(id)] {
				return fmt.Errorf("%w: %q", pricing.ErrUnknownAddOn, id)
			}
		}
		for _, id := range ids {
			if err := s.SetQuantity(pricing.AddOnID(id), req.AddOns[id]); err != nil {
				return err
			}
		}
		return nil
	})
	h.respond(w, view, err)
}

func (h *CheckoutHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req models.PromoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var status pricing.PromoStatus
	view, err := h.update(w, r, func(s *checkout.Session) error {
		if s.Completed {
			return checkout.ErrCompleted
		}
		status = s.ApplyPromo(req.Code)
		return nil
	})
	if err == nil {
		metrics.RecordPromo(string(status))
	}
	h.respond(w, view, err)
}

func (h *CheckoutHandler) SetBilling(w http.ResponseWriter, r *http.Request) {
	var req models.BillingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	view, err := h.update(w, r, func(s *checkout.Session) error {
		if s.Completed {
			return checkout.ErrCompleted
		}
		s.SetBillingCycle(req.Billing == plans.BillingAnnual)
		return nil
	})
	h.respond(w, view, err)
}

// Activate issues the activation token of a completed checkout and queues the
// receipt mail. Repeated calls return the same result without queueing again.
func (h *CheckoutHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var (
		result  *activation.Result
		receipt map[string]interface{}
	)
	_, err := h.update(w, r, func(s *checkout.Session) error {
		first := s.ActivatedAt.IsZero()
		var err error
		if result, err = h.activator.Activate(s); err != nil {
			return err
		}
		if !first {
			return nil
		}
		receipt = map[string]interface{}{
			"email":       s.BillingInfo.Email,
			"name":        strings.TrimSpace(s.BillingInfo.FirstName + " " + s.BillingInfo.LastName),
			"institution": s.BillingInfo.InstitutionName,
			"plan":        string(result.Plan),
			"billing":     result.Billing,
			"total":       result.Total,
			"masked_card": result.MaskedCard,
			"renews_on":   result.RenewsOn,
			"token":       result.Token,
		}
		return nil
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.jobs != nil && receipt != nil {
		jobID, err := h.jobs.Enqueue(r.Context(), queue.JobTypeSendActivationReceipt, receipt)
		if err != nil {
			h.logger.Error().Err(err).Str("checkout_id", result.CheckoutID).Msg("Failed to queue activation receipt")
		} else {
			h.logger.Info().Str("checkout_id", result.CheckoutID).Str("job_id", jobID).Msg("Activation receipt queued")
		}
	}

	utils.SendSuccessResponse(w, models.APIResponse{Message: "Checkout activated", Data: result})
}
