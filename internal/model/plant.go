// Package model defines domain types for plants, KPIs, input tables and
// reforecast results.
package model

import (
	"math"
	"strings"
)

// PlantKind distinguishes can-body lines from can-end lines.
type PlantKind string

const (
	KindCans PlantKind = "Cans"
	KindEnds PlantKind = "Ends"
)

// FuelType selects the display conversion applied to the fuel KPI.
type FuelType string

const (
	FuelNone       FuelType = ""
	FuelLPG        FuelType = "lpg"
	FuelNaturalGas FuelType = "natural_gas"
)

// ParseFuel normalizes a config value into a FuelType.
func ParseFuel(s string) FuelType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lpg", "glp":
		return FuelLPG
	case "natural_gas", "natural-gas", "ng", "gn":
		return FuelNaturalGas
	default:
		return FuelNone
	}
}

// UnitKind says how a KPI rate converts to an absolute quantity.
type UnitKind int

const (
	// AbsoluteRate values multiply volume directly (kg/000, kwh/000...).
	AbsoluteRate UnitKind = iota
	// PercentageRate values are 0-100 and are divided by 100 first.
	PercentageRate
)

func (u UnitKind) String() string {
	if u == PercentageRate {
		return "percentage"
	}
	return "absolute"
}

// ToAbs converts a per-unit rate applied to vol into an absolute quantity.
func (u UnitKind) ToAbs(rate, vol float64) float64 {
	if u == PercentageRate {
		return rate / 100 * vol
	}
	return rate * vol
}

// FromAbs recovers a rate from an absolute quantity spread over vol.
// Division by zero and any non-finite result yield 0.
func (u UnitKind) FromAbs(abs, vol float64) float64 {
	if vol == 0 {
		return 0
	}
	r := abs / vol
	if u == PercentageRate {
		r *= 100
	}
	return Finite(r)
}

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// KPIRole marks KPIs that the presentation layer treats specially.
type KPIRole int

const (
	RolePlain KPIRole = iota
	RoleFuel
	RoleElectricityOffPeak
	RoleElectricityPeak
)

// KPI is one tracked consumption metric.
type KPI struct {
	Name string
	Unit UnitKind
	Role KPIRole
}

// Plant is a production site and the KPIs it tracks, in display order.
type Plant struct {
	ID   string
	Kind PlantKind
	KPIs []KPI
	Fuel FuelType
}

// KPI returns the definition for name. Names outside the catalogue come back
// as plain absolute-rate KPIs.
func (p Plant) KPI(name string) KPI {
	if k, ok := p.Lookup(name); ok {
		return k
	}
	return KPI{Name: name}
}

// Lookup resolves a table label to the catalogue KPI it names. Labels match
// ignoring case and spacing, and the Portuguese wording of plant workbooks
// ("Consumo de Energia", "Fora Ponta", "Ponta", "(KwH)") is accepted.
func (p Plant) Lookup(label string) (KPI, bool) {
	for _, k := range p.KPIs {
		if k.Name == label {
			return k, true
		}
	}
	key := kpiKey(label)
	for _, k := range p.KPIs {
		if kpiKey(k.Name) == key {
			return k, true
		}
	}
	return KPI{}, false
}

// kpiAliases rewrite compact lowercase labels. Order matters: "foraponta"
// must go before "-ponta".
var kpiAliases = []struct{ from, to string }{
	{"consumodeenergia", "energyconsumption"},
	{"foraponta", "off-peak"},
	{"-ponta", "-peak"},
	{"(kwh)", "(kwh/000)"},
}

func kpiKey(label string) string {
	k := strings.ToLower(strings.Join(strings.Fields(label), ""))
	for _, a := range kpiAliases {
		k = strings.ReplaceAll(k, a.from, a.to)
	}
	return k
}

// KPINames returns the KPI names in catalogue order.
func (p Plant) KPINames() []string {
	names := make([]string, len(p.KPIs))
	for i, k := range p.KPIs {
		names[i] = k.Name
	}
	return names
}
