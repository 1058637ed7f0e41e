package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

// Terminal colors.
const (
	colorTitle = lipgloss.Color("42")
	colorLabel = lipgloss.Color("245")
	colorValue = lipgloss.Color("229")
	colorError = lipgloss.Color("203")
)

// renderer writes command results as a styled table, a plain table or JSON.
type renderer struct {
	w      io.Writer
	format string
	styled bool
	tag    language.Tag
	num    *impact.Printer

	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	bad   lipgloss.Style
}

func (a *app) renderer(w io.Writer) *renderer {
	tag := a.language()
	r := &renderer{
		w:      w,
		format: a.output(),
		styled: isTerminal(w),
		tag:    tag,
		num:    impact.NewPrinter(tag),
	}
	if r.styled {
		r.title = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
		r.label = lipgloss.NewStyle().Foreground(colorLabel)
		r.value = lipgloss.NewStyle().Foreground(colorValue).Bold(true)
		r.bad = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	}
	return r
}

func (r *renderer) json() bool { return r.format == OutputJSON }

func (r *renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// row is one label/value line of a table.
type row struct {
	label string
	value string
}

// table writes an optional title followed by aligned rows.
func (r *renderer) table(title string, rows []row) {
	if title != "" {
		fmt.Fprintln(r.w, r.style(r.title, title))
	}
	width := 0
	for _, rw := range rows {
		width = max(width, len([]rune(rw.label)))
	}
	for _, rw := range rows {
		pad := strings.Repeat(" ", width-len([]rune(rw.label)))
		fmt.Fprintf(r.w, "  %s%s  %s\n", r.style(r.label, rw.label), pad, r.style(r.value, rw.value))
	}
}

func (r *renderer) line(s string) {
	fmt.Fprintln(r.w, s)
}

func (r *renderer) problem(s string) {
	fmt.Fprintln(r.w, r.style(r.bad, s))
}

func (r *renderer) style(st lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return st.Render(s)
}

// resultRows lays out a result with locale separators.
func (r *renderer) resultRows(res impact.Result) []row {
	d := r.num.Format(res)
	return []row{
		{r.text(lblCO2), d.CO2SavedKg + " kg"},
		{r.text(lblFuel), d.FuelSavedLiters + " L"},
		{r.text(lblMoney), d.MoneySavedCurrency},
		{r.text(lblTrees), d.TreesEquivalent},
		{r.text(lblDistance), d.DistanceOptimizedKm + " km"},
		{r.text(lblEfficiency), d.EfficiencyGainPercent + " %"},
	}
}

type labelKey int

const (
	lblCO2 labelKey = iota
	lblFuel
	lblMoney
	lblTrees
	lblDistance
	lblEfficiency
	lblVehicle
	lblMonthlyDistance
	lblFuelPrice
	lblLane
	lblTrips
	lblVehicles
	lblConsumption
	lblCO2Factor
	lblValid
	lblTotal
	lblEstimate
)

var labels = map[language.Tag][]string{
	language.Spanish: {
		lblCO2:             "CO2 ahorrado",
		lblFuel:            "Combustible ahorrado",
		lblMoney:           "Dinero ahorrado",
		lblTrees:           "Árboles equivalentes",
		lblDistance:        "Distancia optimizada",
		lblEfficiency:      "Mejora de eficiencia",
		lblVehicle:         "Vehículo",
		lblMonthlyDistance: "Distancia mensual",
		lblFuelPrice:       "Precio del combustible",
		lblLane:            "Trayecto",
		lblTrips:           "Viajes al mes",
		lblVehicles:        "Vehículos",
		lblConsumption:     "Consumo",
		lblCO2Factor:       "Factor CO2",
		lblValid:           "Los datos son válidos",
		lblTotal:           "Total de la flota",
		lblEstimate:        "Ahorro mensual estimado",
	},
	language.English: {
		lblCO2:             "CO2 saved",
		lblFuel:            "Fuel saved",
		lblMoney:           "Money saved",
		lblTrees:           "Trees equivalent",
		lblDistance:        "Distance optimized",
		lblEfficiency:      "Efficiency gain",
		lblVehicle:         "Vehicle",
		lblMonthlyDistance: "Monthly distance",
		lblFuelPrice:       "Fuel price",
		lblLane:            "Lane",
		lblTrips:           "Trips per month",
		lblVehicles:        "Vehicles",
		lblConsumption:     "Consumption",
		lblCO2Factor:       "CO2 factor",
		lblValid:           "Input is valid",
		lblTotal:           "Fleet total",
		lblEstimate:        "Estimated monthly savings",
	},
}

func (r *renderer) text(k labelKey) string {
	if l, ok := labels[r.tag]; ok {
		return l[k]
	}
	return labels[impact.DefaultLanguage][k]
}
