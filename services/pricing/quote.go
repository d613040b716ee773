package pricing

import (
	"github.com/shopspring/decimal"

	"edusaas-checkout-api/utils"
)

var (
	// AnnualRate is the fraction of the monthly price charged per month on annual billing.
	AnnualRate   = d("0.8")
	monthsInYear = decimal.NewFromInt(12)
	hundred      = decimal.NewFromInt(100)
)

// Quote is the pricing input for one checkout: a plan, a billing cycle, add-on lines
// and a promo discount fraction.
type Quote struct {
	Plan     Plan
	IsAnnual bool
	AddOns   []AddOnLine
	Discount decimal.Decimal
}

// PlanPrice is the monthly price, or the discounted yearly total on annual billing.
func (q Quote) PlanPrice() decimal.Decimal {
	if !q.IsAnnual {
		return q.Plan.MonthlyPrice
	}
	return utils.Round(annualTotal(q.Plan.MonthlyPrice))
}

// MonthlyEquivalent is what a plan card shows per month.
func (q Quote) MonthlyEquivalent() decimal.Decimal {
	return MonthlyEquivalent(q.Plan.MonthlyPrice, q.IsAnnual)
}

func MonthlyEquivalent(monthly decimal.Decimal, annual bool) decimal.Decimal {
	if !annual {
		return monthly
	}
	return utils.Round(monthly.Mul(AnnualRate))
}

func (q Quote) AddOnsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.AddOns {
		total = total.Add(l.Subtotal())
	}
	return total
}

type Savings struct {
	AnnualSavings    decimal.Decimal
	PromoCodeSavings decimal.Decimal
	TotalSavings     decimal.Decimal
}

// Savings breaks down what the customer saves. The promo part is computed against the
// plan price only, while Total discounts plan plus add-ons.
func (q Quote) Savings() Savings {
	monthly := q.Plan.MonthlyPrice

	annualSavings := decimal.Zero
	promoBase := monthly
	if q.IsAnnual {
		full := monthly.Mul(monthsInYear)
		annualSavings = full.Sub(annualTotal(monthly))
		promoBase = annualTotal(monthly)
	}
	promoSavings := q.Discount.Mul(promoBase)

	annualSavings = utils.Round(annualSavings)
	promoSavings = utils.Round(promoSavings)
	return Savings{
		AnnualSavings:    annualSavings,
		PromoCodeSavings: promoSavings,
		TotalSavings:     annualSavings.Add(promoSavings),
	}
}

func (q Quote) Total() decimal.Decimal {
	base := q.PlanPrice().Add(q.AddOnsTotal())
	if q.Discount.IsPositive() {
		base = base.Mul(decimal.NewFromInt(1).Sub(q.Discount))
	}
	return utils.Round(base)
}

// Recommendation nudges the customer to the next tier once add-on spend gets close
// to its price.
type Recommendation struct {
	From            PlanID
	Target          PlanID
	CurrentTotal    decimal.Decimal
	TargetPrice     decimal.Decimal
	PriceDifference decimal.Decimal
	// PercentageOverCurrent is (current-target)/current*100, negative when the target
	// tier costs more. Display code negates it.
	PercentageOverCurrent int64
}

// UpgradeRecommendation returns nil when the plan has no upgrade rule or the
// threshold is not reached. Comparisons use the monthly price.
func (q Quote) UpgradeRecommendation() *Recommendation {
	rule := q.Plan.Upgrade
	if rule == nil {
		return nil
	}
	current := q.Plan.MonthlyPrice.Add(q.AddOnsTotal())
	if current.LessThan(rule.Threshold) {
		return nil
	}
	pct := current.Sub(rule.TargetPrice).Div(current).Mul(hundred).Round(0).IntPart()
	return &Recommendation{
		From:                  q.Plan.ID,
		Target:                rule.Target,
		CurrentTotal:          utils.Round(current),
		TargetPrice:           rule.TargetPrice,
		PriceDifference:       utils.Round(rule.TargetPrice.Sub(current)),
		PercentageOverCurrent: pct,
	}
}

func annualTotal(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(monthsInYear).Mul(AnnualRate)
}
