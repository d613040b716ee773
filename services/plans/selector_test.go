package plans

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/store"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }

func newSelector() (*Selector, *store.Memory) {
	mem := store.NewMemory()
	return NewSelector(pricing.DefaultCatalog(), mem), mem
}

func TestCurrent_Defaults(t *testing.T) {
	sel, _ := newSelector()
	got, err := sel.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Selection{Plan: pricing.PlanStandard, IsAnnual: false}, got)
}

func TestCurrent_IgnoresStaleValues(t *testing.T) {
	ctx := context.Background()
	sel, mem := newSelector()
	require.NoError(t, mem.Set(ctx, KeySelectedPlan, "gold"))
	require.NoError(t, mem.Set(ctx, KeyBillingPreference, "weekly"))

	got, err := sel.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Selection{Plan: pricing.PlanStandard}, got)
}

func TestSelectPlan(t *testing.T) {
	ctx := context.Background()
	sel, mem := newSelector()

	got, err := sel.SelectPlan(ctx, "Starter")
	require.NoError(t, err)
	assert.Equal(t, pricing.PlanStarter, got.Plan)

	v, ok, _ := mem.Get(ctx, KeySelectedPlan)
	assert.True(t, ok)
	assert.Equal(t, "starter", v)

	_, err = sel.SelectPlan(ctx, "gold")
	assert.ErrorIs(t, err, pricing.ErrUnknownPlan)
	v, _, _ = mem.Get(ctx, KeySelectedPlan)
	assert.Equal(t, "starter", v)
}

func TestToggleBilling(t *testing.T) {
	ctx := context.Background()
	sel, mem := newSelector()

	got, err := sel.ToggleBilling(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsAnnual)
	v, _, _ := mem.Get(ctx, KeyBillingPreference)
	assert.Equal(t, BillingAnnual, v)

	got, err = sel.ToggleBilling(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsAnnual)
	v, _, _ = mem.Get(ctx, KeyBillingPreference)
	assert.Equal(t, BillingMonthly, v)
}

func TestSelector_StoreErrors(t *testing.T) {
	boom := errors.New("boom")
	sel := NewSelector(pricing.DefaultCatalog(), failingStore{err: boom})

	_, err := sel.Current(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = sel.SelectPlan(context.Background(), "starter")
	assert.ErrorIs(t, err, boom)
	_, err = sel.ToggleBilling(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestContinue_Handoff(t *testing.T) {
	ctx := context.Background()
	sel, _ := newSelector()
	_, err := sel.ToggleBilling(ctx)
	require.NoError(t, err)

	h, err := sel.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/checkout?billing=annual&plan=standard", h.Path())

	parsed, err := ParseHandoff(pricing.DefaultCatalog(), h.Query())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseHandoff_Invalid(t *testing.T) {
	catalog := pricing.DefaultCatalog()
	tests := []url.Values{
		{},
		{"plan": {"gold"}, "billing": {"annual"}},
		{"plan": {"starter"}, "billing": {"weekly"}},
		{"plan": {"starter"}},
	}
	for _, q := range tests {
		_, err := ParseHandoff(catalog, q)
		assert.ErrorIs(t, err, ErrInvalidHandoff, q.Encode())
	}
}

func TestPriceForCard(t *testing.T) {
	catalog := pricing.DefaultCatalog()
	standard, _ := catalog.Plan(pricing.PlanStandard)

	assert.Equal(t, CardPrice{Display: "$99", Storage: "200 GB"}, PriceForCard(standard, false))
	assert.Equal(t, CardPrice{Display: "$79.20", Original: "$99", Struck: true, Storage: "200 GB"}, PriceForCard(standard, true))

	enterprise, _ := catalog.Plan(pricing.PlanEnterprise)
	assert.Equal(t, "$239.20", PriceForCard(enterprise, true).Display)
}

func TestPreferences_ConsentGate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	prefs := NewPreferences(mem)

	assert.ErrorIs(t, prefs.SetFAQOpenIndex(ctx, 2), ErrNoConsent)
	_, ok, _ := mem.Get(ctx, KeyFAQOpenIndex)
	assert.False(t, ok)

	granted, err := prefs.SetConsent(ctx, false)
	require.NoError(t, err)
	assert.False(t, granted)
	_, ok, _ = mem.Get(ctx, KeyCookieConsent)
	assert.False(t, ok)

	granted, err = prefs.SetConsent(ctx, true)
	require.NoError(t, err)
	assert.True(t, granted)

	require.NoError(t, prefs.SetFAQOpenIndex(ctx, 2))
	idx, err := prefs.FAQOpenIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestPreferences_RevokedConsentStopsWrites(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	prefs := NewPreferences(mem)

	_, err := prefs.SetConsent(ctx, true)
	require.NoError(t, err)
	require.NoError(t, prefs.SetFAQOpenIndex(ctx, 3))

	granted, err := prefs.SetConsent(ctx, false)
	require.NoError(t, err)
	assert.False(t, granted)

	consented, err := prefs.Consented(ctx)
	require.NoError(t, err)
	assert.False(t, consented)

	assert.ErrorIs(t, prefs.SetFAQOpenIndex(ctx, 4), ErrNoConsent)
	idx, err := prefs.FAQOpenIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestPreferences_FAQDefault(t *testing.T) {
	idx, err := NewPreferences(store.NewMemory()).FAQOpenIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}
