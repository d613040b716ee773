// Package submission talks to the testimonial and newsletter backend.
package submission

import (
	"context"
	"fmt"

	"edusaas-checkout-api/models"
)

const (
	OpSubmitTestimonial   = "submit_testimonial"
	OpLatestTestimonials  = "latest_testimonials"
	OpSubscribeNewsletter = "subscribe_newsletter"
)

// Error reports a failed backend call. Status is 0 when no response was received.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Client is implemented by both the real backend client and the simulated one.
type Client interface {
	SubmitTestimonial(ctx context.Context, req models.TestimonialRequest) (*models.Testimonial, error)
	LatestTestimonials(ctx context.Context) ([]models.Testimonial, error)
	SubscribeNewsletter(ctx context.Context, req models.NewsletterRequest) (*models.NewsletterResponse, error)
}
