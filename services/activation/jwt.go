package activation

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edusaas-checkout-api/services/card"
	"edusaas-checkout-api/services/checkout"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/utils"
)

const DefaultTokenDuration = 24 * time.Hour

var (
	ErrNotCompleted = errors.New("checkout not completed")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims describe what was bought. Nothing is charged when they are issued.
type Claims struct {
	CheckoutID  string         `json:"checkout_id"`
	Plan        pricing.PlanID `json:"plan"`
	Billing     string         `json:"billing"`
	Total       string         `json:"total"`
	MaskedCard  string         `json:"masked_card"`
	Email       string         `json:"email"`
	Institution string         `json:"institution"`
	jwt.RegisteredClaims
}

// Result is returned to the client once a checkout is activated.
type Result struct {
	CheckoutID string         `json:"checkout_id"`
	Plan       pricing.PlanID `json:"plan"`
	Billing    string         `json:"billing"`
	Total      string         `json:"total"`
	MaskedCard string         `json:"masked_card"`
	RenewsOn   string         `json:"renews_on"`
	Token      string         `json:"token"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

type Service struct {
	secretKey []byte
	issuer    string
	duration  time.Duration
	now       func() time.Time
}

func NewService(secretKey, issuer string, duration time.Duration) *Service {
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &Service{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		duration:  duration,
		now:       time.Now,
	}
}

// Activate signs an activation token for a completed checkout. The first call stamps
// sess.ActivatedAt; later calls sign with that stamp and return the same result.
func (s *Service) Activate(sess *checkout.Session) (*Result, error) {
	if !sess.Completed {
		return nil, ErrNotCompleted
	}

	now := sess.ActivatedAt
	if now.IsZero() {
		now = s.now()
	}
	expiresAt := now.Add(s.duration)
	claims := Claims{
		CheckoutID:  sess.ID,
		Plan:        sess.Plan.ID,
		Billing:     pricing.BillingLabel(sess.IsAnnual),
		Total:       sess.Quote().Total().StringFixed(2),
		MaskedCard:  card.Mask(sess.Payment.CardNumber),
		Email:       sess.BillingInfo.Email,
		Institution: sess.BillingInfo.InstitutionName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("error signing activation token: %w", err)
	}

	sess.ActivatedAt = now
	return &Result{
		CheckoutID: claims.CheckoutID,
		Plan:       claims.Plan,
		Billing:    claims.Billing,
		Total:      claims.Total,
		MaskedCard: claims.MaskedCard,
		RenewsOn:   utils.FormatDate(utils.NextBillingDate(now, sess.IsAnnual)),
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil
}

// Verify parses an activation token and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
