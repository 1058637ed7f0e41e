package impact

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Display precision per Result field.
const (
	co2Decimals        = 1
	fuelDecimals       = 1
	moneyDecimals      = 2
	treesDecimals      = 1
	distanceDecimals   = 0
	efficiencyDecimals = 1
)

// Display is a Result rounded for presentation. It never replaces the raw
// Result; callers needing exact values keep reading the Result.
type Display struct {
	CO2SavedKg            string `json:"co2SavedKg"`
	FuelSavedLiters       string `json:"fuelSavedLiters"`
	MoneySavedCurrency    string `json:"moneySavedCurrency"`
	TreesEquivalent       string `json:"treesEquivalent"`
	DistanceOptimizedKm   string `json:"distanceOptimizedKm"`
	EfficiencyGainPercent string `json:"efficiencyGainPercent"`
}

// Format rounds r using a dot decimal separator and no grouping.
func Format(r Result) Display {
	return Display{
		CO2SavedKg:            fixed(r.CO2SavedKg, co2Decimals),
		FuelSavedLiters:       fixed(r.FuelSavedLiters, fuelDecimals),
		MoneySavedCurrency:    fixed(r.MoneySavedCurrency, moneyDecimals),
		TreesEquivalent:       fixed(r.TreesEquivalent, treesDecimals),
		DistanceOptimizedKm:   fixed(r.DistanceOptimizedKm, distanceDecimals),
		EfficiencyGainPercent: fixed(r.EfficiencyGainPercent, efficiencyDecimals),
	}
}

func fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Printer formats results with the separators of a language, for example
// "1,536.2" in English. Precision matches Format.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer for tag.
func NewPrinter(tag language.Tag) *Printer {
	return &Printer{p: message.NewPrinter(tag)}
}

// Format rounds r with locale separators.
func (lp *Printer) Format(r Result) Display {
	return Display{
		CO2SavedKg:            lp.Number(r.CO2SavedKg, co2Decimals),
		FuelSavedLiters:       lp.Number(r.FuelSavedLiters, fuelDecimals),
		MoneySavedCurrency:    lp.Number(r.MoneySavedCurrency, moneyDecimals),
		TreesEquivalent:       lp.Number(r.TreesEquivalent, treesDecimals),
		DistanceOptimizedKm:   lp.Number(r.DistanceOptimizedKm, distanceDecimals),
		EfficiencyGainPercent: lp.Number(r.EfficiencyGainPercent, efficiencyDecimals),
	}
}

// Number formats v with exactly decimals fraction digits.
func (lp *Printer) Number(v float64, decimals int) string {
	return lp.p.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}
