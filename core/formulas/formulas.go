// Package formulas - Bounded SaaS business metric computations
// Pure functions over exact decimals. Each formula validates its input
// domain, rounds half-up at 4 fractional digits, then validates the result
// against its defined bounds. Floating point is never used here: these are
// bounded business ratios where rounding drift is not acceptable.
package formulas

import (
	"github.com/shopspring/decimal"

	"saas-benchmark/internal/errors"
)

// Precision is the number of fractional digits formula results carry
const Precision = 4

// Result bounds per metric.
var (
	minNDR        = decimal.Zero
	maxNDR        = decimal.NewFromInt(200)
	minMagic      = decimal.Zero
	maxMagic      = decimal.NewFromInt(10)
	minCACPayback = decimal.Zero
	maxCACPayback = decimal.NewFromInt(60)

	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// NetDollarRetention computes NDR as a percentage in [0, 200].
//
//	NDR = ((starting_arr + expansions - contractions - churn) / starting_arr) * 100
func NetDollarRetention(startingARR, expansions, contractions, churn decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative(map[string]decimal.Decimal{
		"starting_arr": startingARR,
		"expansions":   expansions,
		"contractions": contractions,
		"churn":        churn,
	}); err != nil {
		return decimal.Zero, err
	}
	if startingARR.IsZero() {
		return decimal.Zero, errors.Validation("starting_arr must be greater than zero")
	}

	ndr := startingARR.Add(expansions).Sub(contractions).Sub(churn).
		Div(startingARR).Mul(hundred).Round(Precision)

	if ndr.LessThan(minNDR) || ndr.GreaterThan(maxNDR) {
		return decimal.Zero, errors.Validationf("NDR must be between %s%% and %s%%", minNDR, maxNDR)
	}
	return ndr, nil
}

// MagicNumber computes the sales efficiency ratio in [0, 10].
//
//	MagicNumber = net_new_arr / sales_marketing_spend
func MagicNumber(netNewARR, salesMarketingSpend decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative(map[string]decimal.Decimal{
		"net_new_arr":           netNewARR,
		"sales_marketing_spend": salesMarketingSpend,
	}); err != nil {
		return decimal.Zero, err
	}
	if salesMarketingSpend.IsZero() {
		return decimal.Zero, errors.Validation("sales_marketing_spend must be greater than zero")
	}

	magic := netNewARR.Div(salesMarketingSpend).Round(Precision)

	if magic.LessThan(minMagic) || magic.GreaterThan(maxMagic) {
		return decimal.Zero, errors.Validationf("magic number must be between %s and %s", minMagic, maxMagic)
	}
	return magic, nil
}

// CACPayback computes the CAC payback period in months, in [0, 60].
//
//	CACPayback = (cac / (arpa * gross_margin)) * 12
func CACPayback(cac, arpa, grossMargin decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative(map[string]decimal.Decimal{
		"cac":          cac,
		"arpa":         arpa,
		"gross_margin": grossMargin,
	}); err != nil {
		return decimal.Zero, err
	}
	if !grossMargin.IsPositive() || grossMargin.GreaterThan(one) {
		return decimal.Zero, errors.Validation("gross_margin must be between 0 and 1")
	}

	marginRevenue := arpa.Mul(grossMargin)
	if marginRevenue.IsZero() {
		return decimal.Zero, errors.Validation("product of arpa and gross_margin must be greater than zero")
	}

	payback := cac.Div(marginRevenue).Mul(twelve).Round(Precision)

	if payback.LessThan(minCACPayback) || payback.GreaterThan(maxCACPayback) {
		return decimal.Zero, errors.Validationf("CAC payback must be between %s and %s months", minCACPayback, maxCACPayback)
	}
	return payback, nil
}

func requireNonNegative(inputs map[string]decimal.Decimal) error {
	// Deterministic order matters only for error precedence; check in a
	// stable order so the same bad input always reports the same field.
	for _, name := range []string{
		"starting_arr", "expansions", "contractions", "churn",
		"net_new_arr", "sales_marketing_spend",
		"cac", "arpa", "gross_margin",
	} {
		v, ok := inputs[name]
		if !ok {
			continue
		}
		if v.IsNegative() {
			return errors.Validationf("%s cannot be negative", name)
		}
	}
	return nil
}
