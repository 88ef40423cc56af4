package model

import (
	"fmt"
	"sort"
	"strings"
)

// MonthsPerYear is the fixed calendar length of every input series.
const MonthsPerYear = 12

// Months holds the short month labels used as table columns.
var Months = [MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// DefaultReforecastMonth is June, the usual mid-year reforecast.
const DefaultReforecastMonth = 5

// MonthIndex resolves a month label (English or Portuguese abbreviation, or a
// 1-based number) to a 0-based index.
func MonthIndex(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	for i, m := range Months {
		if strings.ToLower(m) == s {
			return i, nil
		}
	}
	if i, ok := portugueseMonths[s]; ok {
		return i, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 1 && n <= MonthsPerYear {
		return n - 1, nil
	}
	return 0, fmt.Errorf("unknown month %q", label)
}

var portugueseMonths = map[string]int{
	"fev": 1, "abr": 3, "mai": 4, "ago": 7, "set": 8, "out": 9, "dez": 11,
}

// Series is one value per calendar month.
type Series [MonthsPerYear]float64

// Sum adds the values at the given month indexes; nil means all months.
func (s Series) Sum(months []int) float64 {
	var total float64
	if months == nil {
		for _, v := range s {
			total += v
		}
		return total
	}
	for _, m := range months {
		total += s[m]
	}
	return total
}

// Coefficients is a KPI's monthly rate row plus its full-year (FY) target.
type Coefficients struct {
	Monthly Series  `yaml:"monthly" json:"monthly"`
	Annual  float64 `yaml:"fy" json:"fy"`
}

// FormatInputs holds the three input tables for one production format.
type FormatInputs struct {
	Name         string                  `yaml:"name" json:"name"`
	Volume       Series                  `yaml:"volume" json:"volume"`
	Coefficients map[string]Coefficients `yaml:"coefficients" json:"coefficients"`
	Overrides    map[string]Series       `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Coefficient returns the KPI's coefficients, zero when absent.
func (f FormatInputs) Coefficient(kpi string) Coefficients {
	return f.Coefficients[kpi]
}

// Override returns the KPI's planned series, zero when absent.
func (f FormatInputs) Override(kpi string) Series {
	return f.Overrides[kpi]
}

// Canonical returns a copy of f whose coefficient and override keys use the
// plant's catalogue names. A label that names no KPI, or a KPI already keyed
// by its catalogue name, is kept as it was.
func (f FormatInputs) Canonical(p Plant) FormatInputs {
	f.Coefficients = canonicalKeys(f.Coefficients, p)
	f.Overrides = canonicalKeys(f.Overrides, p)
	return f
}

func canonicalKeys[V any](m map[string]V, p Plant) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	var aliased []string
	for label, v := range m {
		if k, ok := p.Lookup(label); ok && k.Name != label {
			aliased = append(aliased, label)
			continue
		}
		out[label] = v
	}
	sort.Strings(aliased)
	for _, label := range aliased {
		k, _ := p.Lookup(label)
		if _, taken := out[k.Name]; taken {
			out[label] = m[label]
			continue
		}
		out[k.Name] = m[label]
	}
	return out
}

// PlantInputs is everything the reforecast needs for one plant.
type PlantInputs struct {
	PlantID         string         `yaml:"plant" json:"plant"`
	ReforecastMonth int            `yaml:"reforecast_month" json:"reforecast_month"`
	Formats         []FormatInputs `yaml:"formats" json:"formats"`
}

// MonthLabel returns the label of the reforecast month.
func (p PlantInputs) MonthLabel() string {
	if p.ReforecastMonth < 0 || p.ReforecastMonth >= MonthsPerYear {
		return "?"
	}
	return Months[p.ReforecastMonth]
}

// Canonical applies FormatInputs.Canonical to every format.
func (p PlantInputs) Canonical(plant Plant) PlantInputs {
	if p.Formats == nil {
		return p
	}
	formats := make([]FormatInputs, len(p.Formats))
	for i, f := range p.Formats {
		formats[i] = f.Canonical(plant)
	}
	p.Formats = formats
	return p
}

// NewFormat returns a format with zeroed tables for every plant KPI.
func NewFormat(name string, plant Plant) FormatInputs {
	f := FormatInputs{
		Name:         name,
		Coefficients: make(map[string]Coefficients, len(plant.KPIs)),
		Overrides:    make(map[string]Series, len(plant.KPIs)),
	}
	for _, k := range plant.KPIs {
		f.Coefficients[k.Name] = Coefficients{}
		f.Overrides[k.Name] = Series{}
	}
	return f
}

// DefaultInputs is the state of a plant that has never been edited.
func DefaultInputs(plant Plant, formats int) PlantInputs {
	if formats < 1 {
		formats = 1
	}
	in := PlantInputs{
		PlantID:         plant.ID,
		ReforecastMonth: DefaultReforecastMonth,
		Formats:         make([]FormatInputs, formats),
	}
	for i := range in.Formats {
		in.Formats[i] = NewFormat(fmt.Sprintf("Format_%d", i+1), plant)
	}
	return in
}
