package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edusaas-checkout-api/models"
)

const RequestTimeout = 15 * time.Second

// HTTPClient calls the backend under baseURL.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewHTTPClient(baseURL string, logger zerolog.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: RequestTimeout, Transport: transport},
		logger:  logger.With().Str("component", "submission_client").Logger(),
	}
}

func (c *HTTPClient) SubmitTestimonial(ctx context.Context, req models.TestimonialRequest) (*models.Testimonial, error) {
	var resp models.TestimonialResponse
	if err := c.do(ctx, OpSubmitTestimonial, http.MethodPost, "/api/testimonials/submit", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Op: OpSubmitTestimonial, Status: http.StatusOK, Message: messageOr(resp.Message, "testimonial rejected")}
	}
	return resp.Data, nil
}

func (c *HTTPClient) LatestTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	var resp models.TestimonialListResponse
	if err := c.do(ctx, OpLatestTestimonials, http.MethodGet, "/api/testimonials/latest", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Op: OpLatestTestimonials, Status: http.StatusOK, Message: messageOr(resp.Message, "unsuccessful response")}
	}
	return resp.Data, nil
}

func (c *HTTPClient) SubscribeNewsletter(ctx context.Context, req models.NewsletterRequest) (*models.NewsletterResponse, error) {
	var resp models.NewsletterResponse
	if err := c.do(ctx, OpSubscribeNewsletter, http.MethodPost, "/api/newsletter/subscribe", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Op: OpSubscribeNewsletter, Status: http.StatusOK, Message: messageOr(resp.Message, "subscription rejected")}
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "failed to marshal request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("Backend request failed")
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request completed")

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &envelope)
		return &Error{Op: op, Status: resp.StatusCode, Message: messageOr(envelope.Message, http.StatusText(resp.StatusCode))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: fmt.Sprintf("invalid response body: %v", err), Err: err}
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
