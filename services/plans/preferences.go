package plans

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNoConsent is returned when UI state is written before necessary cookies were accepted.
var ErrNoConsent = errors.New("necessary cookies consent not given")

// Preferences stores optional UI state, gated on the visitor's cookie consent.
type Preferences struct {
	store PreferenceStore
}

func NewPreferences(store PreferenceStore) *Preferences {
	return &Preferences{store: store}
}

func (p *Preferences) Consented(ctx context.Context) (bool, error) {
	v, ok, err := p.store.Get(ctx, KeyCookieConsent)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", KeyCookieConsent, err)
	}
	return ok && v == "true", nil
}

// SetConsent records the consent flag. A refusal writes nothing for a visitor who
// never consented; one who had consented gets the flag cleared and the FAQ index reset.
func (p *Preferences) SetConsent(ctx context.Context, necessary bool) (bool, error) {
	if !necessary {
		return false, p.revoke(ctx)
	}
	if err := p.store.Set(ctx, KeyCookieConsent, "true"); err != nil {
		return false, fmt.Errorf("persist %s: %w", KeyCookieConsent, err)
	}
	return true, nil
}

func (p *Preferences) revoke(ctx context.Context) error {
	consented, err := p.Consented(ctx)
	if err != nil || !consented {
		return err
	}
	if err := p.store.Set(ctx, KeyCookieConsent, "false"); err != nil {
		return fmt.Errorf("persist %s: %w", KeyCookieConsent, err)
	}
	if err := p.store.Set(ctx, KeyFAQOpenIndex, "-1"); err != nil {
		return fmt.Errorf("persist %s: %w", KeyFAQOpenIndex, err)
	}
	return nil
}

// SetFAQOpenIndex remembers which FAQ entry is expanded; -1 means none.
func (p *Preferences) SetFAQOpenIndex(ctx context.Context, index int) error {
	ok, err := p.Consented(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoConsent
	}
	if err := p.store.Set(ctx, KeyFAQOpenIndex, strconv.Itoa(index)); err != nil {
		return fmt.Errorf("persist %s: %w", KeyFAQOpenIndex, err)
	}
	return nil
}

func (p *Preferences) FAQOpenIndex(ctx context.Context) (int, error) {
	v, ok, err := p.store.Get(ctx, KeyFAQOpenIndex)
	if err != nil {
		return -1, fmt.Errorf("read %s: %w", KeyFAQOpenIndex, err)
	}
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1, nil
	}
	return n, nil
}
