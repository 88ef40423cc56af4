// Package config handles rfcst configuration and the built-in plant catalogue.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"
)

// ErrUnknownPlant is returned when a plant ID is not in the catalogue.
var ErrUnknownPlant = errors.New("unknown plant")

// KPI names shared by both plant kinds.
const (
	KPISpoilage      = "Spoilage (%)"
	KPIEnergy        = "Energy Consumption (kwh/000)"
	KPILightOffPeak  = "Variable Light (kwh/000) - Off-Peak"
	KPILightPeak     = "Variable Light (kwh/000) - Peak"
	KPIWaterSewer    = "Water & Sewer (m³/000)"
	KPIFuel          = "Gas (m³/000) / (kg/000)"
	KPILightCombined = "Variable Light (kwh/000)"
)

var cansKPIs = []model.KPI{
	{Name: "Metal Can (kg/000)"},
	{Name: KPISpoilage, Unit: model.PercentageRate},
	{Name: "Scrap (kg/000)"},
	{Name: "Varnish Usage (kg/000)"},
	{Name: "Ink Usage (kg/000)"},
	{Name: "Inside Spray Usage (kg/000)"},
	{Name: KPIFuel, Role: model.RoleFuel},
	{Name: "Thermal (kwh/000)"},
	{Name: KPIEnergy},
	{Name: KPILightOffPeak, Role: model.RoleElectricityOffPeak},
	{Name: KPILightPeak, Role: model.RoleElectricityPeak},
	{Name: KPIWaterSewer},
}

var endsKPIs = []model.KPI{
	{Name: "Metal End (kg/000)"},
	{Name: KPISpoilage, Unit: model.PercentageRate},
	{Name: "Tab Scrap (kg/000)"},
	{Name: "Compound Usage (kg/000)"},
	{Name: KPIEnergy},
	{Name: KPILightOffPeak, Role: model.RoleElectricityOffPeak},
	{Name: KPILightPeak, Role: model.RoleElectricityPeak},
	{Name: KPIWaterSewer},
	{Name: "Metal Tab (kg/000)"},
	{Name: "End Scrap (kg/000)"},
}

var cansPlants = []string{"ARBA", "BRBR", "BR3R", "BRJC", "BRPA", "BRET", "BRPE", "BRFR", "BRAC", "PYAS", "CLSA"}

var endsPlants = []string{"BRAM", "PYAST", "BRPET", "BR3RT"}

// PlantIDs returns every catalogue plant ID, sorted.
func PlantIDs() []string {
	ids := make([]string, 0, len(cansPlants)+len(endsPlants))
	ids = append(ids, cansPlants...)
	ids = append(ids, endsPlants...)
	sort.Strings(ids)
	return ids
}

// LookupPlant returns the catalogue entry for id, with the fuel type taken
// from cfg. Matching is case-insensitive.
func LookupPlant(cfg Config, id string) (model.Plant, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	var kind model.PlantKind
	var kpis []model.KPI
	switch {
	case contains(cansPlants, id):
		kind, kpis = model.KindCans, cansKPIs
	case contains(endsPlants, id):
		kind, kpis = model.KindEnds, endsKPIs
	default:
		return model.Plant{}, fmt.Errorf("%w: %q", ErrUnknownPlant, id)
	}

	// Callers may reorder or relabel; hand out a copy.
	own := make([]model.KPI, len(kpis))
	copy(own, kpis)

	return model.Plant{
		ID:   id,
		Kind: kind,
		KPIs: own,
		Fuel: FuelFor(cfg, id),
	}, nil
}

// Plants returns the whole catalogue in ID order.
func Plants(cfg Config) []model.Plant {
	ids := PlantIDs()
	plants := make([]model.Plant, 0, len(ids))
	for _, id := range ids {
		p, err := LookupPlant(cfg, id)
		if err != nil {
			continue
		}
		plants = append(plants, p)
	}
	return plants
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Catalog serves plant lookups bound to one configuration.
type Catalog struct {
	cfg Config
}

// NewCatalog returns a catalogue that resolves fuel types from cfg.
func NewCatalog(cfg Config) Catalog {
	return Catalog{cfg: cfg}
}

// Plants returns every plant in ID order.
func (c Catalog) Plants() []model.Plant {
	return Plants(c.cfg)
}

// Plant looks up one plant.
func (c Catalog) Plant(id string) (model.Plant, error) {
	return LookupPlant(c.cfg, id)
}
