package plans

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/utils"
)

const (
	KeySelectedPlan      = "selected_plan"
	KeyBillingPreference = "billing_preference"
	KeyFAQOpenIndex      = "faq_open_index"
	KeyCookieConsent     = "cookie_consent"

	BillingAnnual  = "annual"
	BillingMonthly = "monthly"

	DefaultPlan = pricing.PlanStandard
)

var ErrInvalidHandoff = errors.New("invalid checkout handoff")

// PreferenceStore is durable key-value storage for one visitor.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Selection is the plan and billing cycle a visitor has picked.
type Selection struct {
	Plan     pricing.PlanID `json:"plan"`
	IsAnnual bool           `json:"is_annual"`
}

type Selector struct {
	catalog *pricing.Catalog
	store   PreferenceStore
}

func NewSelector(catalog *pricing.Catalog, store PreferenceStore) *Selector {
	return &Selector{catalog: catalog, store: store}
}

// Current reads the persisted selection. Missing or stale values fall back to the
// standard plan billed monthly.
func (s *Selector) Current(ctx context.Context) (Selection, error) {
	sel := Selection{Plan: DefaultPlan}

	planID, ok, err := s.store.Get(ctx, KeySelectedPlan)
	if err != nil {
		return sel, fmt.Errorf("read %s: %w", KeySelectedPlan, err)
	}
	if ok {
		if id, err := s.catalog.ParsePlanID(planID); err == nil {
			sel.Plan = id
		}
	}

	billing, ok, err := s.store.Get(ctx, KeyBillingPreference)
	if err != nil {
		return sel, fmt.Errorf("read %s: %w", KeyBillingPreference, err)
	}
	sel.IsAnnual = ok && billing == BillingAnnual
	return sel, nil
}

// SelectPlan persists the chosen plan and leaves the billing cycle alone.
func (s *Selector) SelectPlan(ctx context.Context, id string) (Selection, error) {
	planID, err := s.catalog.ParsePlanID(id)
	if err != nil {
		return Selection{}, err
	}
	if err := s.store.Set(ctx, KeySelectedPlan, string(planID)); err != nil {
		return Selection{}, fmt.Errorf("persist %s: %w", KeySelectedPlan, err)
	}
	return s.Current(ctx)
}

// ToggleBilling flips between annual and monthly and persists the result.
func (s *Selector) ToggleBilling(ctx context.Context) (Selection, error) {
	sel, err := s.Current(ctx)
	if err != nil {
		return Selection{}, err
	}
	sel.IsAnnual = !sel.IsAnnual
	if err := s.store.Set(ctx, KeyBillingPreference, BillingValue(sel.IsAnnual)); err != nil {
		return Selection{}, fmt.Errorf("persist %s: %w", KeyBillingPreference, err)
	}
	return sel, nil
}

// Continue returns the handoff into checkout for the current selection.
func (s *Selector) Continue(ctx context.Context) (Handoff, error) {
	sel, err := s.Current(ctx)
	if err != nil {
		return Handoff{}, err
	}
	return Handoff(sel), nil
}

func BillingValue(annual bool) string {
	if annual {
		return BillingAnnual
	}
	return BillingMonthly
}

// Handoff carries a selection from the plan page into checkout.
type Handoff Selection

func (h Handoff) Query() url.Values {
	q := url.Values{}
	q.Set("plan", string(h.Plan))
	q.Set("billing", BillingValue(h.IsAnnual))
	return q
}

// Path is the checkout route with the handoff encoded as query parameters.
func (h Handoff) Path() string {
	return "/checkout?" + h.Query().Encode()
}

// ParseHandoff validates the plan and billing query parameters.
func ParseHandoff(catalog *pricing.Catalog, q url.Values) (Handoff, error) {
	planID, err := catalog.ParsePlanID(q.Get("plan"))
	if err != nil {
		return Handoff{}, fmt.Errorf("%w: %v", ErrInvalidHandoff, err)
	}
	var annual bool
	switch q.Get("billing") {
	case BillingAnnual:
		annual = true
	case BillingMonthly:
	default:
		return Handoff{}, fmt.Errorf("%w: billing %q", ErrInvalidHandoff, q.Get("billing"))
	}
	return Handoff{Plan: planID, IsAnnual: annual}, nil
}

// CardPrice is the price block of a plan card.
type CardPrice struct {
	Display  string `json:"display"`
	Original string `json:"original,omitempty"`
	Struck   bool   `json:"struck"`
	Storage  string `json:"max_storage"`
}

// PriceForCard shows the discounted monthly equivalent on annual billing with the
// list price struck through.
func PriceForCard(plan pricing.Plan, annual bool) CardPrice {
	cp := CardPrice{Storage: plan.MaxStorageLabel}
	if !annual {
		cp.Display = wholeDollars(plan.MonthlyPrice)
		return cp
	}
	cp.Display = wholeDollars(pricing.MonthlyEquivalent(plan.MonthlyPrice, true))
	cp.Original = wholeDollars(plan.MonthlyPrice)
	cp.Struck = true
	return cp
}

// wholeDollars drops the cents when there are none, e.g. "$99" or "$79.20".
func wholeDollars(v decimal.Decimal) string {
	return strings.TrimSuffix(utils.FormatCurrency(v), ".00")
}
