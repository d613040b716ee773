package checkout

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edusaas-checkout-api/services/card"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/validation"
)

var fixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, plan pricing.PlanID) *Session {
	t.Helper()
	s, err := NewSession(pricing.DefaultCatalog(), plan, false, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func fillAccount(t *testing.T, s *Session) {
	t.Helper()
	values := map[string]string{
		"firstName":       "Ana",
		"lastName":        "Silva",
		"email":           "ana@school.edu",
		"phone":           "555-0100",
		"institutionName": "Lincoln High",
		"address":         "1 Main St",
		"city":            "Springfield",
		"state":           "IL",
		"zipCode":         "62701",
		"country":         "us",
		"password":        "supersecret",
		"confirmPassword": "supersecret",
	}
	for field, value := range values {
		require.NoError(t, s.SetField(StepAccountInfo, field, value))
	}
}

func fillPayment(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetField(StepPayment, "cardNumber", "4242424242424242"))
	require.NoError(t, s.SetField(StepPayment, "expiryDate", "1228"))
	require.NoError(t, s.SetField(StepPayment, "cvv", "123"))
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StepAccountInfo, s.Step)
	assert.False(t, s.Completed)
	assert.Len(t, s.AddOns, len(pricing.AddOnOrder))
	assert.Equal(t, pricing.PromoNone, s.PromoStatus)
	assert.Equal(t, fixedNow, s.CreatedAt)

	_, err := NewSession(pricing.DefaultCatalog(), "platinum", false)
	assert.ErrorIs(t, err, pricing.ErrUnknownPlan)
}

func TestSubmitStep_AccountInfoRequired(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)

	assert.False(t, s.SubmitStep())
	assert.Equal(t, StepAccountInfo, s.Step)
	for _, field := range accountRequired {
		assert.Equal(t, validation.KindRequired, s.Errors.Billing[field], field)
	}
	assert.NotContains(t, s.Errors.Billing, "address2")
	assert.NotContains(t, s.Errors.Billing, "customCountry")
}

func TestSubmitStep_AccountInfoRules(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	fillAccount(t, s)
	require.NoError(t, s.SetField(StepAccountInfo, "email", "not-an-email"))
	require.NoError(t, s.SetField(StepAccountInfo, "password", "short"))
	require.NoError(t, s.SetField(StepAccountInfo, "confirmPassword", "shorter"))
	require.NoError(t, s.SetField(StepAccountInfo, "country", "other"))

	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.Errors{
		"email":           validation.KindInvalidEmail,
		"password":        validation.KindPasswordLength,
		"confirmPassword": validation.KindPasswordMismatch,
		"customCountry":   validation.KindRequired,
	}, s.Errors.Billing)
}

func TestSubmitStep_UnknownCountry(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)
	fillAccount(t, s)
	require.NoError(t, s.SetField(StepAccountInfo, "country", "atlantis"))

	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.Errors{"country": validation.KindInvalidCountry}, s.Errors.Billing)

	require.NoError(t, s.SetField(StepAccountInfo, "country", "ca"))
	require.True(t, s.SubmitStep())
	fillPayment(t, s)
	require.True(t, s.SubmitStep())

	for field, value := range map[string]string{
		"address": "9 Elm St", "city": "Toronto", "state": "ON", "zipCode": "M5V", "country": "narnia",
	} {
		require.NoError(t, s.SetField(StepBillingAddress, field, value))
	}
	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.Errors{"country": validation.KindInvalidCountry}, s.Errors.BillingAddress)
}

func TestSetField_ClearsErrorOnEdit(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	fillAccount(t, s)
	require.NoError(t, s.SetField(StepAccountInfo, "email", "bad"))
	require.False(t, s.SubmitStep())
	require.Contains(t, s.Errors.Billing, "email")

	// Still invalid, but the error is dropped until the next submit.
	require.NoError(t, s.SetField(StepAccountInfo, "email", "still-bad"))
	assert.NotContains(t, s.Errors.Billing, "email")

	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.KindInvalidEmail, s.Errors.Billing["email"])

	require.NoError(t, s.SetField(StepAccountInfo, "email", "ana@school.edu"))
	assert.True(t, s.SubmitStep())
	assert.Equal(t, StepPayment, s.Step)
	assert.True(t, s.Errors.Billing.Empty())
}

func TestSetField_Unknown(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	assert.ErrorIs(t, s.SetField(StepAccountInfo, "nickname", "x"), ErrUnknownField)
	assert.ErrorIs(t, s.SetField(StepPayment, "email", "x"), ErrUnknownField)
}

func TestSetField_PaymentFormatting(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)

	require.NoError(t, s.SetField(StepPayment, "cardNumber", "378282246310005"))
	assert.Equal(t, "3782 822463 10005", s.Payment.CardNumber)
	assert.Equal(t, card.BrandAmex, s.CardBrand)

	require.NoError(t, s.SetField(StepPayment, "expiryDate", "0930"))
	assert.Equal(t, "09/30", s.Payment.ExpiryDate)

	require.NoError(t, s.SetField(StepPayment, "cvv", "12a345"))
	assert.Equal(t, "1234", s.Payment.CVV)
}

func TestSetField_CVVValidatedOnChange(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	require.NoError(t, s.SetField(StepPayment, "cardNumber", "4242"))

	require.NoError(t, s.SetField(StepPayment, "cvv", "12"))
	assert.Equal(t, validation.KindInvalidCVV, s.Errors.Payment["cvv"])

	require.NoError(t, s.SetField(StepPayment, "cvv", "123"))
	assert.NotContains(t, s.Errors.Payment, "cvv")

	require.NoError(t, s.SetField(StepPayment, "cvv", "1"))
	require.Contains(t, s.Errors.Payment, "cvv")
	require.NoError(t, s.SetField(StepPayment, "cvv", ""))
	assert.NotContains(t, s.Errors.Payment, "cvv")

	mode, ok := FieldMode(StepPayment, "cvv")
	assert.True(t, ok)
	assert.Equal(t, ValidateOnChange, mode)
	mode, _ = FieldMode(StepPayment, "cardNumber")
	assert.Equal(t, ValidateOnSubmit, mode)
}

func TestSubmitStep_Payment(t *testing.T) {
	tests := []struct {
		name   string
		number string
		expiry string
		cvv    string
		want   validation.Errors
	}{
		{"empty", "", "", "", validation.Errors{
			"cardNumber": validation.KindRequired,
			"expiryDate": validation.KindRequired,
			"cvv":        validation.KindRequired,
		}},
		{"bad luhn", "4242424242424241", "12/28", "123", validation.Errors{"cardNumber": validation.KindInvalidCard}},
		{"short visa", "424242424242", "12/28", "123", validation.Errors{"cardNumber": validation.KindInvalidCard}},
		{"expired last month", "4242424242424242", "09/26", "123", validation.Errors{"expiryDate": validation.KindInvalidExpiry}},
		{"bad month", "4242424242424242", "13/28", "123", validation.Errors{"expiryDate": validation.KindInvalidExpiry}},
		{"amex needs four digit cvv", "378282246310005", "12/28", "123", validation.Errors{"cvv": validation.KindInvalidCVV}},
		{"current month is valid", "5555555555554444", "10/26", "123", validation.Errors{}},
		{"amex ok", "378282246310005", "12/28", "1234", validation.Errors{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, pricing.PlanStarter)
			fillAccount(t, s)
			require.True(t, s.SubmitStep())

			require.NoError(t, s.SetField(StepPayment, "cardNumber", tt.number))
			require.NoError(t, s.SetField(StepPayment, "expiryDate", tt.expiry))
			require.NoError(t, s.SetField(StepPayment, "cvv", tt.cvv))

			ok := s.SubmitStep()
			assert.Equal(t, tt.want, s.Errors.Payment)
			assert.Equal(t, tt.want.Empty(), ok)
			if ok {
				assert.Equal(t, StepBillingAddress, s.Step)
			} else {
				assert.Equal(t, StepPayment, s.Step)
			}
		})
	}
}

func TestSubmitStep_BillingAddress(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)
	fillAccount(t, s)
	require.True(t, s.SubmitStep())
	fillPayment(t, s)
	require.True(t, s.SubmitStep())

	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.Errors{
		"address": validation.KindRequired,
		"city":    validation.KindRequired,
		"state":   validation.KindRequired,
		"zipCode": validation.KindRequired,
		"country": validation.KindRequired,
	}, s.Errors.BillingAddress)
	assert.False(t, s.Completed)

	s.ToggleUseSameAddress(true)
	assert.True(t, s.Errors.BillingAddress.Empty())
	assert.Equal(t, "Springfield", s.BillingAddress.City)

	assert.True(t, s.SubmitStep())
	assert.True(t, s.Completed)
	assert.ErrorIs(t, s.SetField(StepAccountInfo, "email", "x@y.z"), ErrCompleted)
}

func TestSubmitStep_SeparateBillingAddress(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)
	fillAccount(t, s)
	require.True(t, s.SubmitStep())
	fillPayment(t, s)
	require.True(t, s.SubmitStep())

	for field, value := range map[string]string{
		"address": "9 Elm St", "city": "Toronto", "state": "ON", "zipCode": "M5V", "country": "other",
	} {
		require.NoError(t, s.SetField(StepBillingAddress, field, value))
	}
	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.Errors{"customCountry": validation.KindRequired}, s.Errors.BillingAddress)

	require.NoError(t, s.SetField(StepBillingAddress, "customCountry", "Canada"))
	assert.True(t, s.SubmitStep())
	assert.True(t, s.Completed)
}

func TestToggleUseSameAddress_Idempotent(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	fillAccount(t, s)

	s.ToggleUseSameAddress(true)
	first := s.BillingAddress
	s.ToggleUseSameAddress(true)
	assert.Equal(t, first, s.BillingAddress)
	assert.Equal(t, "1 Main St", s.BillingAddress.Address.Address)

	s.ToggleUseSameAddress(false)
	assert.False(t, s.UseSameAddress)
	assert.Empty(t, s.BillingAddress.City)
	s.ToggleUseSameAddress(false)
	assert.Empty(t, s.BillingAddress.City)
}

func TestGoBack(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	s.GoBack()
	assert.Equal(t, StepAccountInfo, s.Step)

	fillAccount(t, s)
	require.True(t, s.SubmitStep())
	require.NoError(t, s.SetField(StepPayment, "cardNumber", "4242424242424242"))
	s.GoBack()
	assert.Equal(t, StepAccountInfo, s.Step)
	assert.Equal(t, "4242 4242 4242 4242", s.Payment.CardNumber)
}

func TestSetQuantity(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	require.NoError(t, s.SetQuantity(pricing.AddOnTeacher, 10))
	require.NoError(t, s.SetQuantity(pricing.AddOnAdmin, 1000))
	// teacher 10 x 3.00 plus admin clamped to 20 x 5.00
	assert.Equal(t, "130.00", s.Quote().AddOnsTotal().StringFixed(2))
	assert.Equal(t, 20, s.AddOns[0].Quantity)

	assert.ErrorIs(t, s.SetQuantity("janitor", 1), pricing.ErrUnknownAddOn)

	ent := newTestSession(t, pricing.PlanEnterprise)
	assert.ErrorIs(t, ent.SetQuantity(pricing.AddOnTeacher, 1), ErrNoAddOns)
}

func TestApplyPromo(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)

	assert.Equal(t, pricing.PromoApplied, s.ApplyPromo(" test20 "))
	assert.Equal(t, "TEST20", s.Promo.Code)
	assert.Equal(t, "79.20", s.Quote().Total().StringFixed(2))

	assert.Equal(t, pricing.PromoInvalid, s.ApplyPromo("BOGUS"))
	assert.True(t, s.Promo.Discount.IsZero())
	assert.Equal(t, "99.00", s.Quote().Total().StringFixed(2))
}

func TestView_RendersErrorsInLanguage(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	require.False(t, s.SubmitStep())

	v := s.View()
	assert.Equal(t, "This field is required", v.Errors.Billing["email"])

	s.SetLanguage("es")
	v = s.View()
	assert.Equal(t, "Este campo es obligatorio", v.Errors.Billing["email"])
	assert.Equal(t, validation.KindRequired, s.Errors.Billing["email"])
}

func TestView_MasksSecrets(t *testing.T) {
	s := newTestSession(t, pricing.PlanStarter)
	fillAccount(t, s)
	fillPayment(t, s)

	v := s.View()
	assert.Equal(t, "XXXX XXXX XXXX 4242", v.CardNumber)
	assert.Equal(t, card.BrandVisa, v.CardBrand)
	assert.Equal(t, 3, v.CVVLength)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "supersecret")
	assert.NotContains(t, string(raw), "4242424242424242")
}

func TestSubmitStep_EmailScenario(t *testing.T) {
	s := newTestSession(t, pricing.PlanStandard)
	fillAccount(t, s)

	require.NoError(t, s.SetField(StepAccountInfo, "email", ""))
	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.KindRequired, s.Errors.Billing["email"])
	assert.Equal(t, StepAccountInfo, s.Step)

	require.NoError(t, s.SetField(StepAccountInfo, "email", "a@b"))
	assert.False(t, s.SubmitStep())
	assert.Equal(t, validation.KindInvalidEmail, s.Errors.Billing["email"])

	require.NoError(t, s.SetField(StepAccountInfo, "email", "a@b.com"))
	assert.True(t, s.SubmitStep())
	assert.Equal(t, StepPayment, s.Step)
}
