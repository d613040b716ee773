package checkout

import (
	"edusaas-checkout-api/services/card"
)

// Mode selects when a field is validated.
type Mode int

const (
	// ValidateOnSubmit fields are checked when their step is submitted; editing one
	// clears its error optimistically.
	ValidateOnSubmit Mode = iota
	// ValidateOnChange fields are re-validated on every edit.
	ValidateOnChange
)

type fieldRule struct {
	mode   Mode
	target func(s *Session) *string
	// format normalizes raw input before it is stored; nil stores it as typed.
	format func(s *Session, raw string) string
}

func billingField(get func(s *Session) *string) fieldRule {
	return fieldRule{mode: ValidateOnSubmit, target: get}
}

var fieldRules = map[Step]map[string]fieldRule{
	StepAccountInfo: {
		"firstName":       billingField(func(s *Session) *string { return &s.BillingInfo.FirstName }),
		"lastName":        billingField(func(s *Session) *string { return &s.BillingInfo.LastName }),
		"email":           billingField(func(s *Session) *string { return &s.BillingInfo.Email }),
		"phone":           billingField(func(s *Session) *string { return &s.BillingInfo.Phone }),
		"institutionName": billingField(func(s *Session) *string { return &s.BillingInfo.InstitutionName }),
		"address":         billingField(func(s *Session) *string { return &s.BillingInfo.Address.Address }),
		"address2":        billingField(func(s *Session) *string { return &s.BillingInfo.Address2 }),
		"city":            billingField(func(s *Session) *string { return &s.BillingInfo.City }),
		"state":           billingField(func(s *Session) *string { return &s.BillingInfo.State }),
		"zipCode":         billingField(func(s *Session) *string { return &s.BillingInfo.ZipCode }),
		"country":         billingField(func(s *Session) *string { return &s.BillingInfo.Country }),
		"customCountry":   billingField(func(s *Session) *string { return &s.BillingInfo.CustomCountry }),
		"password":        billingField(func(s *Session) *string { return &s.BillingInfo.Password }),
		"confirmPassword": billingField(func(s *Session) *string { return &s.BillingInfo.ConfirmPassword }),
	},
	StepPayment: {
		"cardNumber": {
			mode:   ValidateOnSubmit,
			target: func(s *Session) *string { return &s.Payment.CardNumber },
			format: func(s *Session, raw string) string {
				formatted, brand := card.Format(raw)
				s.CardBrand = brand
				return formatted
			},
		},
		"expiryDate": {
			mode:   ValidateOnSubmit,
			target: func(s *Session) *string { return &s.Payment.ExpiryDate },
			format: func(_ *Session, raw string) string { return card.FormatExpiry(raw) },
		},
		"cvv": {
			mode:   ValidateOnChange,
			target: func(s *Session) *string { return &s.Payment.CVV },
			format: func(s *Session, raw string) string {
				digits := card.DigitsOnly(raw)
				if limit := s.CardBrand.CVVLength(); len(digits) > limit {
					digits = digits[:limit]
				}
				return digits
			},
		},
	},
	StepBillingAddress: {
		"address":       billingField(func(s *Session) *string { return &s.BillingAddress.Address.Address }),
		"address2":      billingField(func(s *Session) *string { return &s.BillingAddress.Address2 }),
		"city":          billingField(func(s *Session) *string { return &s.BillingAddress.City }),
		"state":         billingField(func(s *Session) *string { return &s.BillingAddress.State }),
		"zipCode":       billingField(func(s *Session) *string { return &s.BillingAddress.ZipCode }),
		"country":       billingField(func(s *Session) *string { return &s.BillingAddress.Country }),
		"customCountry": billingField(func(s *Session) *string { return &s.BillingAddress.CustomCountry }),
	},
}

// FieldMode reports the validation mode of a field, and whether the field exists.
func FieldMode(step Step, field string) (Mode, bool) {
	rule, ok := fieldRules[step][field]
	return rule.mode, ok
}

var (
	accountRequired = []string{
		"firstName", "lastName", "email", "phone", "institutionName",
		"address", "city", "state", "zipCode", "country",
		"password", "confirmPassword",
	}
	addressRequired = []string{"address", "city", "state", "zipCode", "country"}
)
