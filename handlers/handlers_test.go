package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"edusaas-checkout-api/config"
	"edusaas-checkout-api/models"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/services/activation"
	"edusaas-checkout-api/services/checkout"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/services/submission"
	"edusaas-checkout-api/store"
)

const testCookieName = "test_checkout"

var fixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

type queuedJob struct {
	Type queue.JobType
	Data map[string]interface{}
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []queuedJob
	err  error
}

func (f *fakeJobs) Enqueue(_ context.Context, jobType queue.JobType, data map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, queuedJob{Type: jobType, Data: data})
	return "job-1", nil
}

type fakeClient struct {
	mu         sync.Mutex
	submitted  []models.TestimonialRequest
	subscribed []string
	latest     []models.Testimonial
	err        error
}

func (f *fakeClient) SubmitTestimonial(_ context.Context, req models.TestimonialRequest) (*models.Testimonial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, req)
	return &models.Testimonial{
		ID:          "t1",
		Name:        req.Name,
		Position:    req.Position,
		Institution: req.Institution,
		Quote:       req.Quote,
		Initials:    submission.Initials(req.Name),
		Date:        fixedNow,
	}, nil
}

func (f *fakeClient) LatestTestimonials(_ context.Context) ([]models.Testimonial, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.latest, nil
}

func (f *fakeClient) SubscribeNewsletter(_ context.Context, req models.NewsletterRequest) (*models.NewsletterResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.subscribed = append(f.subscribed, req.Email)
	return &models.NewsletterResponse{Success: true}, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	router   *mux.Router
	cookies  map[string]*http.Cookie
	registry *checkout.Registry
	jobs     *fakeJobs
	client   *fakeClient
}

func newTestServer(t *testing.T, withQueue bool) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	catalog := pricing.DefaultCatalog()
	backend := store.NewMemory()

	ts := &testServer{
		t:        t,
		cookies:  make(map[string]*http.Cookie),
		registry: checkout.NewRegistry(30*time.Minute, logger),
		jobs:     &fakeJobs{},
		client:   &fakeClient{},
	}

	var jobs JobEnqueuer
	if withQueue {
		jobs = ts.jobs
	}

	visitors := NewVisitors(config.SessionConfig{
		CookieName:  testCookieName,
		Secret:      "0123456789abcdef0123456789abcdef",
		IdleTimeout: 30 * time.Minute,
	}, logger)

	co := NewCheckoutHandler(catalog, ts.registry, backend,
		activation.NewService("test-secret", "edusaas-test", time.Hour), jobs, visitors, logger)
	co.now = func() time.Time { return fixedNow }

	h := Handlers{
		Plans:        NewPlanHandler(catalog, backend, visitors, logger),
		Preferences:  NewPreferenceHandler(backend, visitors, logger),
		Checkout:     co,
		Cards:        NewCardHandler(logger),
		Testimonials: NewTestimonialHandler(ts.client, logger),
		Newsletter:   NewNewsletterHandler(ts.client, jobs, false, logger),
		Health:       NewHealthHandler(nil, nil, ts.registry),
	}
	ts.router = mux.NewRouter()
	h.Register(ts.router.PathPrefix("/api").Subrouter())
	return ts
}

// do sends a request carrying the cookies collected so far.
func (ts *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range ts.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		ts.cookies[c.Name] = c
	}

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (ts *testServer) view(env envelope) checkout.View {
	ts.t.Helper()
	var v checkout.View
	require.NoError(ts.t, json.Unmarshal(env.Data, &v))
	return v
}

func (ts *testServer) setField(step checkout.Step, field, value string) checkout.View {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPatch, "/api/checkout/fields", models.FieldUpdateRequest{
		Step: int(step), Field: field, Value: value,
	})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return ts.view(env)
}

func (ts *testServer) fillAccount() {
	ts.t.Helper()
	values := [][2]string{
		{"firstName", "Ana"},
		{"lastName", "Silva"},
		{"email", "ana@school.edu"},
		{"phone", "555-0100"},
		{"institutionName", "Lincoln High"},
		{"address", "1 Main St"},
		{"city", "Springfield"},
		{"state", "IL"},
		{"zipCode", "62701"},
		{"country", "us"},
		{"password", "supersecret"},
		{"confirmPassword", "supersecret"},
	}
	for _, kv := range values {
		ts.setField(checkout.StepAccountInfo, kv[0], kv[1])
	}
}

func (ts *testServer) fillPayment() {
	ts.t.Helper()
	ts.setField(checkout.StepPayment, "cardNumber", "4242424242424242")
	ts.setField(checkout.StepPayment, "expiryDate", "1228")
	ts.setField(checkout.StepPayment, "cvv", "123")
}
