package pricing

import (
	"github.com/shopspring/decimal"

	"edusaas-checkout-api/utils"
)

type Amount struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

func newAmount(v decimal.Decimal) Amount {
	f, _ := utils.Round(v).Float64()
	return Amount{Value: f, Formatted: utils.FormatCurrency(v)}
}

type AddOnSummary struct {
	ID              AddOnID `json:"id"`
	Quantity        int     `json:"quantity"`
	DisplayQuantity int     `json:"display_quantity"`
	MaxQuantity     int     `json:"max_quantity"`
	UnitPrice       Amount  `json:"unit_price"`
	Subtotal        Amount  `json:"subtotal"`
}

type RecommendationSummary struct {
	Target                PlanID `json:"target"`
	CurrentTotal          Amount `json:"current_total"`
	TargetPrice           Amount `json:"target_price"`
	PriceDifference       Amount `json:"price_difference"`
	PercentageOverCurrent int64  `json:"percentage_over_current"`
}

// Summary is the rendered price breakdown handed to the UI.
type Summary struct {
	Plan              PlanID                 `json:"plan"`
	Billing           string                 `json:"billing"`
	PlanPrice         Amount                 `json:"plan_price"`
	MonthlyEquivalent Amount                 `json:"monthly_equivalent"`
	AddOns            []AddOnSummary         `json:"add_ons"`
	AddOnsTotal       Amount                 `json:"add_ons_total"`
	DiscountPercent   int64                  `json:"discount_percent"`
	AnnualSavings     Amount                 `json:"annual_savings"`
	PromoCodeSavings  Amount                 `json:"promo_code_savings"`
	TotalSavings      Amount                 `json:"total_savings"`
	Total             Amount                 `json:"total"`
	Upgrade           *RecommendationSummary `json:"upgrade,omitempty"`
}

func BillingLabel(annual bool) string {
	if annual {
		return "annual"
	}
	return "monthly"
}

func (q Quote) Summary() Summary {
	s := Summary{
		Plan:              q.Plan.ID,
		Billing:           BillingLabel(q.IsAnnual),
		PlanPrice:         newAmount(q.PlanPrice()),
		MonthlyEquivalent: newAmount(q.MonthlyEquivalent()),
		AddOns:            make([]AddOnSummary, 0, len(q.AddOns)),
		AddOnsTotal:       newAmount(q.AddOnsTotal()),
		DiscountPercent:   q.Discount.Mul(hundred).Round(0).IntPart(),
		Total:             newAmount(q.Total()),
	}
	for _, l := range q.AddOns {
		s.AddOns = append(s.AddOns, AddOnSummary{
			ID:              l.ID,
			Quantity:        l.Quantity,
			DisplayQuantity: l.DisplayQuantity(),
			MaxQuantity:     l.MaxQuantity,
			UnitPrice:       newAmount(l.UnitPrice),
			Subtotal:        newAmount(l.Subtotal()),
		})
	}

	savings := q.Savings()
	s.AnnualSavings = newAmount(savings.AnnualSavings)
	s.PromoCodeSavings = newAmount(savings.PromoCodeSavings)
	s.TotalSavings = newAmount(savings.TotalSavings)

	if rec := q.UpgradeRecommendation(); rec != nil {
		s.Upgrade = &RecommendationSummary{
			Target:                rec.Target,
			CurrentTotal:          newAmount(rec.CurrentTotal),
			TargetPrice:           newAmount(rec.TargetPrice),
			PriceDifference:       newAmount(rec.PriceDifference),
			PercentageOverCurrent: rec.PercentageOverCurrent,
		}
	}
	return s
}
