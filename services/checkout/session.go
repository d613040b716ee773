package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"edusaas-checkout-api/locale"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/card"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/validation"
)

type Step int

const (
	StepAccountInfo    Step = 1
	StepPayment        Step = 2
	StepBillingAddress Step = 3
)

func (s Step) String() string {
	switch s {
	case StepAccountInfo:
		return "account_info"
	case StepPayment:
		return "payment"
	case StepBillingAddress:
		return "billing_address"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownField = errors.New("unknown checkout field")
	ErrNoAddOns     = errors.New("plan has no add-ons")
	ErrCompleted    = errors.New("checkout already completed")
)

// StepErrors keeps the error kinds of each step separately.
type StepErrors struct {
	Billing        validation.Errors `json:"billing"`
	Payment        validation.Errors `json:"payment"`
	BillingAddress validation.Errors `json:"billingAddress"`
}

// For returns the error kinds recorded for step.
func (e *StepErrors) For(step Step) validation.Errors {
	switch step {
	case StepAccountInfo:
		return e.Billing
	case StepPayment:
		return e.Payment
	default:
		return e.BillingAddress
	}
}

// Session is the state of one checkout wizard.
type Session struct {
	ID       string
	Plan     pricing.Plan
	IsAnnual bool
	AddOns   []pricing.AddOnLine

	Promo       pricing.PromoCode
	PromoStatus pricing.PromoStatus

	BillingInfo    models.BillingInfo
	Payment        models.PaymentInfo
	CardBrand      card.Brand
	BillingAddress models.BillingAddress
	UseSameAddress bool

	Step      Step
	Errors    StepErrors
	Completed bool
	Language  string

	CreatedAt time.Time
	UpdatedAt time.Time
	// ActivatedAt is set by the first successful activation and zero before it.
	ActivatedAt time.Time

	catalog *pricing.Catalog
	now     func() time.Time
}

type Option func(*Session)

// WithClock replaces time.Now for expiry checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLanguage(lang string) Option {
	return func(s *Session) { s.Language = lang }
}

// NewSession starts a checkout at step 1 for planID.
func NewSession(catalog *pricing.Catalog, planID pricing.PlanID, annual bool, opts ...Option) (*Session, error) {
	plan, ok := catalog.Plan(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", pricing.ErrUnknownPlan, planID)
	}

	s := &Session{
		ID:          uuid.New().String(),
		Plan:        plan,
		IsAnnual:    annual,
		AddOns:      pricing.AddOnLines(plan),
		Promo:       pricing.PromoCode{Discount: decimal.Zero},
		PromoStatus: pricing.PromoNone,
		Step:        StepAccountInfo,
		Errors: StepErrors{
			Billing:        validation.Errors{},
			Payment:        validation.Errors{},
			BillingAddress: validation.Errors{},
		},
		Language: locale.DefaultLanguage,
		catalog:  catalog,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CreatedAt = s.now()
	s.UpdatedAt = s.CreatedAt
	return s, nil
}

func (s *Session) touch() { s.UpdatedAt = s.now() }

// SubmitStep validates the current step. On success it advances, or completes the
// checkout on the last step, and reports true. On failure the step's errors are
// replaced and the wizard stays put.
func (s *Session) SubmitStep() bool {
	defer s.touch()
	if s.Completed {
		return true
	}

	switch s.Step {
	case StepAccountInfo:
		s.Errors.Billing = s.validateAccountInfo()
		if !s.Errors.Billing.Empty() {
			return false
		}
		s.Step = StepPayment
	case StepPayment:
		s.Errors.Payment = s.validatePayment()
		if !s.Errors.Payment.Empty() {
			return false
		}
		s.Step = StepBillingAddress
	case StepBillingAddress:
		if !s.UseSameAddress {
			errs := validateAddress(s.BillingAddress.Address)
			if !errs.Empty() {
				s.Errors.BillingAddress = errs
				return false
			}
		}
		s.Errors.BillingAddress = validation.Errors{}
		s.Completed = true
	}
	return true
}

// GoBack moves one step back without validating.
func (s *Session) GoBack() {
	if s.Completed {
		return
	}
	if s.Step > StepAccountInfo {
		s.Step--
		s.touch()
	}
}

// ToggleUseSameAddress mirrors the account address into the billing address when
// checked and empties the billing address when unchecked.
func (s *Session) ToggleUseSameAddress(checked bool) {
	s.UseSameAddress = checked
	if checked {
		s.BillingAddress = models.BillingAddress{Address: s.BillingInfo.Address}
		s.Errors.BillingAddress = validation.Errors{}
	} else {
		s.BillingAddress = models.BillingAddress{}
	}
	s.touch()
}

// SetField stores a user edit. Fields validated on change are re-checked right away;
// every other field just drops its error.
func (s *Session) SetField(step Step, field, value string) error {
	if s.Completed {
		return ErrCompleted
	}
	rule, ok := fieldRules[step][field]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownField, step, field)
	}
	if rule.format != nil {
		value = rule.format(s, value)
	}
	*rule.target(s) = value

	errs := s.Errors.For(step)
	switch rule.mode {
	case ValidateOnChange:
		if kind, bad := s.liveCheck(field, value); bad {
			errs[field] = kind
		} else {
			errs.Clear(field)
		}
	default:
		errs.Clear(field)
	}
	s.touch()
	return nil
}

// Field returns the stored value of a field.
func (s *Session) Field(step Step, field string) (string, bool) {
	rule, ok := fieldRules[step][field]
	if !ok {
		return "", false
	}
	return *rule.target(s), true
}

func (s *Session) liveCheck(field, value string) (validation.ErrorKind, bool) {
	switch field {
	case "cvv":
		if value == "" {
			return "", false
		}
		if !validation.CVV(value, s.CardBrand) {
			return validation.KindInvalidCVV, true
		}
	}
	return "", false
}

// SetQuantity changes an add-on quantity, clamped to the plan's limits.
func (s *Session) SetQuantity(id pricing.AddOnID, qty int) error {
	if s.Completed {
		return ErrCompleted
	}
	if !s.Plan.HasAddOns() {
		return ErrNoAddOns
	}
	if !pricing.SetQuantity(s.AddOns, id, qty) {
		return fmt.Errorf("%w: %q", pricing.ErrUnknownAddOn, id)
	}
	s.touch()
	return nil
}

// ApplyPromo looks the code up; an unknown code resets the discount to zero.
func (s *Session) ApplyPromo(code string) pricing.PromoStatus {
	promo, status := s.catalog.Promos().Lookup(code)
	s.Promo = promo
	s.PromoStatus = status
	s.touch()
	return status
}

func (s *Session) SetBillingCycle(annual bool) {
	s.IsAnnual = annual
	s.touch()
}

// SetLanguage switches the render language. Stored errors are kinds, so they are
// re-rendered in the new language without being touched.
func (s *Session) SetLanguage(lang string) {
	s.Language = lang
	s.touch()
}

func (s *Session) Quote() pricing.Quote {
	return pricing.Quote{
		Plan:     s.Plan,
		IsAnnual: s.IsAnnual,
		AddOns:   s.AddOns,
		Discount: s.Promo.Discount,
	}
}

func (s *Session) Summary() pricing.Summary {
	return s.Quote().Summary()
}

func (s *Session) validateAccountInfo() validation.Errors {
	errs := validation.Errors{}
	for _, field := range accountRequired {
		value, _ := s.Field(StepAccountInfo, field)
		if !validation.Required(value) {
			errs.Set(field, validation.KindRequired)
		}
	}

	info := s.BillingInfo
	if !validation.Email(info.Email) {
		errs.Set("email", validation.KindInvalidEmail)
	}
	if !validation.PasswordLength(info.Password) {
		errs.Set("password", validation.KindPasswordLength)
	}
	if !validation.PasswordsMatch(info.Password, info.ConfirmPassword) {
		errs.Set("confirmPassword", validation.KindPasswordMismatch)
	}
	if validation.Required(info.Country) && !locale.IsCountry(info.Country) {
		errs.Set("country", validation.KindInvalidCountry)
	}
	if info.Country == locale.CountryOther && !validation.Required(info.CustomCountry) {
		errs.Set("customCountry", validation.KindRequired)
	}
	return errs
}

func (s *Session) validatePayment() validation.Errors {
	errs := validation.Errors{}
	p := s.Payment
	brand := card.Detect(card.DigitsOnly(p.CardNumber))

	if !validation.Required(p.CardNumber) {
		errs.Set("cardNumber", validation.KindRequired)
	} else if !validation.CardNumber(p.CardNumber, brand) {
		errs.Set("cardNumber", validation.KindInvalidCard)
	}

	if !validation.Required(p.ExpiryDate) {
		errs.Set("expiryDate", validation.KindRequired)
	} else if !validation.Expiry(p.ExpiryDate, s.now()) {
		errs.Set("expiryDate", validation.KindInvalidExpiry)
	}

	if !validation.Required(p.CVV) {
		errs.Set("cvv", validation.KindRequired)
	} else if !validation.CVV(p.CVV, brand) {
		errs.Set("cvv", validation.KindInvalidCVV)
	}
	return errs
}

func validateAddress(a models.Address) validation.Errors {
	errs := validation.Errors{}
	values := map[string]string{
		"address": a.Address,
		"city":    a.City,
		"state":   a.State,
		"zipCode": a.ZipCode,
		"country": a.Country,
	}
	for _, field := range addressRequired {
		if !validation.Required(values[field]) {
			errs.Set(field, validation.KindRequired)
		}
	}
	if validation.Required(a.Country) && !locale.IsCountry(a.Country) {
		errs.Set("country", validation.KindInvalidCountry)
	}
	if a.Country == locale.CountryOther && !validation.Required(a.CustomCountry) {
		errs.Set("customCountry", validation.KindRequired)
	}
	return errs
}
