package models

import "time"

type TestimonialRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Position    string `json:"position" validate:"required,max=120"`
	Institution string `json:"institution" validate:"required,max=200"`
	Quote       string `json:"quote" validate:"required,min=10,max=1000"`
	Email       string `json:"email" validate:"required,email"`
}

type Testimonial struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Position    string    `json:"position"`
	Institution string    `json:"institution"`
	Quote       string    `json:"quote"`
	Email       string    `json:"email"`
	Initials    string    `json:"initials"`
	Date        time.Time `json:"date"`
	IsApproved  bool      `json:"isApproved"`
}

// TestimonialResponse is the envelope of the testimonial backend.
type TestimonialResponse struct {
	Success bool         `json:"success"`
	Data    *Testimonial `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

type TestimonialListResponse struct {
	Success bool          `json:"success"`
	Data    []Testimonial `json:"data"`
	Message string        `json:"message,omitempty"`
}

type NewsletterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type NewsletterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
