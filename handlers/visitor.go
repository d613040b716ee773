package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"edusaas-checkout-api/config"
	"edusaas-checkout-api/locale"
)

const (
	visitorIDKey  = "visitor_id"
	checkoutIDKey = "checkout_id"
	languageKey   = "lang"
)

// Visitors reads and writes the signed visitor cookie. The cookie holds ids only;
// checkout state stays on the server.
type Visitors struct {
	store  *sessions.CookieStore
	name   string
	logger zerolog.Logger
}

func NewVisitors(cfg config.SessionConfig, logger zerolog.Logger) *Visitors {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.IdleTimeout.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Visitors{store: store, name: cfg.CookieName, logger: logger}
}

// Visitor is the cookie-backed identity of one browser.
type Visitor struct {
	ID         string
	CheckoutID string
	Language   string

	sess *sessions.Session
}

// Load returns the visitor for r, minting a new id when the cookie is missing or
// was signed with another key.
func (v *Visitors) Load(r *http.Request) *Visitor {
	sess, err := v.store.Get(r, v.name)
	if err != nil {
		v.logger.Debug().Err(err).Msg("Discarding unreadable visitor cookie")
	}

	vis := &Visitor{sess: sess}
	vis.ID, _ = sess.Values[visitorIDKey].(string)
	vis.CheckoutID, _ = sess.Values[checkoutIDKey].(string)
	explicit := r.URL.Query().Get("lang")
	if explicit == "" {
		explicit, _ = sess.Values[languageKey].(string)
	}
	vis.Language = locale.Match(explicit, r.Header.Get("Accept-Language"))
	if vis.ID == "" {
		vis.ID = uuid.New().String()
	}
	return vis
}

// Save writes the visitor back to the response cookie.
func (v *Visitors) Save(w http.ResponseWriter, r *http.Request, vis *Visitor) error {
	vis.sess.Values[visitorIDKey] = vis.ID
	vis.sess.Values[languageKey] = vis.Language
	if vis.CheckoutID == "" {
		delete(vis.sess.Values, checkoutIDKey)
	} else {
		vis.sess.Values[checkoutIDKey] = vis.CheckoutID
	}
	return vis.sess.Save(r, w)
}
