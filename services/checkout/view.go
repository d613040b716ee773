package checkout

import (
	"edusaas-checkout-api/locale"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/services/card"
	"edusaas-checkout-api/services/pricing"
)

// View is the client-facing snapshot of a session. Secrets never leave the server:
// passwords are dropped and the card number is masked.
type View struct {
	ID             string                `json:"id"`
	Step           Step                  `json:"step"`
	StepName       string                `json:"step_name"`
	Completed      bool                  `json:"completed"`
	Language       string                `json:"language"`
	BillingInfo    models.BillingInfo    `json:"billing_info"`
	CardNumber     string                `json:"card_number"`
	CardBrand      card.Brand            `json:"card_brand"`
	CardMask       string                `json:"card_mask"`
	ExpiryDate     string                `json:"expiry_date"`
	CVVLength      int                   `json:"cvv_length"`
	BillingAddress models.BillingAddress `json:"billing_address"`
	UseSameAddress bool                  `json:"use_same_address"`
	PromoCode      string                `json:"promo_code,omitempty"`
	PromoStatus    pricing.PromoStatus   `json:"promo_status"`
	Errors         ErrorsView            `json:"errors"`
	Summary        pricing.Summary       `json:"summary"`
}

type ErrorsView struct {
	Billing        map[string]string `json:"billing"`
	Payment        map[string]string `json:"payment"`
	BillingAddress map[string]string `json:"billing_address"`
}

// View renders the session in its current language.
func (s *Session) View() View {
	spec := card.SpecFor(s.CardBrand)
	return View{
		ID:             s.ID,
		Step:           s.Step,
		StepName:       s.Step.String(),
		Completed:      s.Completed,
		Language:       s.Language,
		BillingInfo:    s.BillingInfo,
		CardNumber:     card.Mask(s.Payment.CardNumber),
		CardBrand:      s.CardBrand,
		CardMask:       spec.Mask,
		ExpiryDate:     s.Payment.ExpiryDate,
		CVVLength:      spec.CVVLength,
		BillingAddress: s.BillingAddress,
		UseSameAddress: s.UseSameAddress,
		PromoCode:      s.Promo.Code,
		PromoStatus:    s.PromoStatus,
		Errors: ErrorsView{
			Billing:        locale.Render(s.Language, s.Errors.Billing),
			Payment:        locale.Render(s.Language, s.Errors.Payment),
			BillingAddress: locale.Render(s.Language, s.Errors.BillingAddress),
		},
		Summary: s.Summary(),
	}
}
