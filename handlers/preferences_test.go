package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edusaas-checkout-api/models"
)

type preferencesResponse struct {
	Consented    bool `json:"consented"`
	FAQOpenIndex int  `json:"faq_open_index"`
}

func intPtr(i int) *int { return &i }

func TestPreferences_ConsentGatesFAQ(t *testing.T) {
	ts := newTestServer(t, true)

	rec, env := ts.do(http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var prefs preferencesResponse
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.False(t, prefs.Consented)
	assert.Equal(t, -1, prefs.FAQOpenIndex)

	rec, _ = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(2)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = ts.do(http.MethodPost, "/api/preferences/consent", models.ConsentRequest{Necessary: boolPtr(false)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.False(t, prefs.Consented)

	rec, _ = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(2)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(http.MethodPost, "/api/preferences/consent", models.ConsentRequest{Necessary: boolPtr(true)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(2)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.True(t, prefs.Consented)
	assert.Equal(t, 2, prefs.FAQOpenIndex)
}

func TestPreferences_RevokeConsent(t *testing.T) {
	ts := newTestServer(t, true)

	rec, _ := ts.do(http.MethodPost, "/api/preferences/consent", models.ConsentRequest{Necessary: boolPtr(true)})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(3)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := ts.do(http.MethodPost, "/api/preferences/consent", models.ConsentRequest{Necessary: boolPtr(false)})
	require.Equal(t, http.StatusOK, rec.Code)
	var prefs preferencesResponse
	require.NoError(t, json.Unmarshal(env.Data, &prefs))
	assert.False(t, prefs.Consented)
	assert.Equal(t, -1, prefs.FAQOpenIndex)

	rec, _ = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(1)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPreferences_RequestValidation(t *testing.T) {
	ts := newTestServer(t, true)

	rec, _ := ts.do(http.MethodPost, "/api/preferences/consent", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = ts.do(http.MethodPut, "/api/preferences/faq", models.FAQRequest{Index: intPtr(-2)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
