package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PromoStatus string

const (
	PromoNone    PromoStatus = "none"
	PromoApplied PromoStatus = "applied"
	PromoInvalid PromoStatus = "invalid"
)

type PromoCode struct {
	Code     string
	Discount decimal.Decimal
}

// PromoTable maps a normalized code to its discount fraction in (0,1].
type PromoTable map[string]decimal.Decimal

func DefaultPromoTable() PromoTable {
	return PromoTable{
		"TEST10": d("0.10"),
		"TEST20": d("0.20"),
		"TEST30": d("0.30"),
		"TEST50": d("0.50"),
	}
}

// Lookup resolves code; unmatched codes carry a zero discount.
func (t PromoTable) Lookup(code string) (PromoCode, PromoStatus) {
	norm := normalizeCode(code)
	if norm == "" {
		return PromoCode{Discount: decimal.Zero}, PromoNone
	}
	fraction, ok := t[norm]
	if !ok {
		return PromoCode{Code: norm, Discount: decimal.Zero}, PromoInvalid
	}
	return PromoCode{Code: norm, Discount: fraction}, PromoApplied
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
