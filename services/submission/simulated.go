package submission

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"edusaas-checkout-api/models"
)

const (
	DefaultDelay = time.Second

	// MaxStoredTestimonials bounds the in-memory list; the oldest entries are dropped.
	MaxStoredTestimonials = 50
)

// Simulated stands in for the backend. Every call waits Delay and then succeeds
// unless Fail is set. With AutoApprove, submissions show up in LatestTestimonials.
type Simulated struct {
	Delay       time.Duration
	Fail        bool
	AutoApprove bool

	mu           sync.Mutex
	testimonials []models.Testimonial
	now          func() time.Time
}

func NewSimulated(delay time.Duration, fail bool) *Simulated {
	return &Simulated{Delay: delay, Fail: fail, now: time.Now}
}

func (s *Simulated) wait(ctx context.Context, op string) error {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return &Error{Op: op, Message: "cancelled", Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if s.Fail {
		return &Error{Op: op, Status: 503, Message: "simulated backend failure"}
	}
	return nil
}

func (s *Simulated) SubmitTestimonial(ctx context.Context, req models.TestimonialRequest) (*models.Testimonial, error) {
	if err := s.wait(ctx, OpSubmitTestimonial); err != nil {
		return nil, err
	}
	t := models.Testimonial{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Position:    req.Position,
		Institution: req.Institution,
		Quote:       req.Quote,
		Email:       req.Email,
		Initials:    Initials(req.Name),
		Date:        s.now(),
		IsApproved:  s.AutoApprove,
	}

	s.mu.Lock()
	s.testimonials = append(s.testimonials, t)
	if n := len(s.testimonials); n > MaxStoredTestimonials {
		s.testimonials = append([]models.Testimonial(nil), s.testimonials[n-MaxStoredTestimonials:]...)
	}
	s.mu.Unlock()
	return &t, nil
}

// LatestTestimonials returns approved testimonials only, newest first.
func (s *Simulated) LatestTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	if err := s.wait(ctx, OpLatestTestimonials); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Testimonial{}
	for i := len(s.testimonials) - 1; i >= 0; i-- {
		if s.testimonials[i].IsApproved {
			out = append(out, s.testimonials[i])
		}
	}
	return out, nil
}

func (s *Simulated) SubscribeNewsletter(ctx context.Context, req models.NewsletterRequest) (*models.NewsletterResponse, error) {
	if err := s.wait(ctx, OpSubscribeNewsletter); err != nil {
		return nil, err
	}
	return &models.NewsletterResponse{Success: true, Message: "Subscribed " + req.Email}, nil
}

// Initials builds up to two upper-case initials from a display name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
