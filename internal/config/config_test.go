package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/rfcst/internal/model"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.DefaultFormats != 2 || cfg.General.DefaultMonth != "Jun" {
		t.Fatalf("defaults = %+v", cfg.General)
	}
}

func TestSaveToThenLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.General.LastPlant = "BRPA"
	cfg.General.DefaultMonth = "Sep"
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Plants = map[string]PlantConfig{"BRPA": {Fuel: "lpg"}}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.LastPlant != "BRPA" || DefaultMonthIndex(got) != 8 {
		t.Errorf("general = %+v", got.General)
	}
	if len(got.Server.AllowedOrigins) != 1 {
		t.Errorf("origins = %v", got.Server.AllowedOrigins)
	}
	if FuelFor(got, "BRPA") != model.FuelLPG {
		t.Errorf("fuel = %q", FuelFor(got, "BRPA"))
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDefaultMonthIndex_FallsBackToJune(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DefaultMonth = "smarch"
	if got := DefaultMonthIndex(cfg); got != model.DefaultReforecastMonth {
		t.Fatalf("DefaultMonthIndex = %d", got)
	}
}

func TestStorePath_EnvWins(t *testing.T) {
	t.Setenv("RFCST_STORE", "/tmp/x.db")
	cfg := DefaultConfig()
	cfg.General.StorePath = "/elsewhere.db"
	if got := StorePath(cfg); got != "/tmp/x.db" {
		t.Fatalf("StorePath = %q", got)
	}
}

func TestLookupPlant(t *testing.T) {
	cfg := DefaultConfig()

	p, err := LookupPlant(cfg, " brpa ")
	if err != nil {
		t.Fatalf("LookupPlant: %v", err)
	}
	if p.ID != "BRPA" || p.Kind != model.KindCans || len(p.KPIs) != 12 {
		t.Fatalf("plant = %s %s %d KPIs", p.ID, p.Kind, len(p.KPIs))
	}
	if p.KPIs[1].Name != KPISpoilage || p.KPIs[1].Unit != model.PercentageRate {
		t.Errorf("KPI 1 = %+v", p.KPIs[1])
	}

	ends, err := LookupPlant(cfg, "BRAM")
	if err != nil {
		t.Fatalf("LookupPlant: %v", err)
	}
	if ends.Kind != model.KindEnds || len(ends.KPIs) != 10 {
		t.Fatalf("ends plant = %s %d KPIs", ends.Kind, len(ends.KPIs))
	}

	if _, err := LookupPlant(cfg, "NOPE"); !errors.Is(err, ErrUnknownPlant) {
		t.Fatalf("err = %v, want ErrUnknownPlant", err)
	}
}

func TestLookupPlant_ReturnsCopies(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := LookupPlant(cfg, "BRPA")
	a.KPIs[0].Name = "changed"
	b, _ := LookupPlant(cfg, "BRPA")
	if b.KPIs[0].Name == "changed" {
		t.Fatal("catalogue KPIs were mutated through a returned plant")
	}
}

func TestPercentageKPIIsOnlySpoilage(t *testing.T) {
	for _, p := range Plants(DefaultConfig()) {
		for _, k := range p.KPIs {
			if (k.Unit == model.PercentageRate) != (k.Name == KPISpoilage) {
				t.Errorf("%s %q has unit %v", p.ID, k.Name, k.Unit)
			}
		}
	}
}

func TestCatalog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Plants = map[string]PlantConfig{"BRJC": {Fuel: "natural_gas"}}
	c := NewCatalog(cfg)

	if n := len(c.Plants()); n != len(PlantIDs()) || n != 15 {
		t.Fatalf("catalogue has %d plants", n)
	}
	p, err := c.Plant("brjc")
	if err != nil {
		t.Fatal(err)
	}
	if p.Fuel != model.FuelNaturalGas {
		t.Errorf("fuel = %q", p.Fuel)
	}
}

func TestLoadFrom_PlantKeysAnyCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[plants.brbr]\nfuel = \"lpg\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	p, err := LookupPlant(cfg, "BRBR")
	if err != nil {
		t.Fatal(err)
	}
	if p.Fuel != model.FuelLPG {
		t.Errorf("fuel = %q, want %q", p.Fuel, model.FuelLPG)
	}
}

func TestWorkbookLabelsResolve(t *testing.T) {
	cfg := DefaultConfig()
	cans, _ := LookupPlant(cfg, "BRBR")
	ends, _ := LookupPlant(cfg, "BRAM")

	cases := []struct {
		plant model.Plant
		label string
		want  string
	}{
		{cans, "Spoilage(%)", KPISpoilage},
		{cans, "Inside Spray Usage(kg/000)", "Inside Spray Usage (kg/000)"},
		{cans, "Consumo de Energia (kwh/000)", KPIEnergy},
		{cans, "Variable Light (kwh/000) - Fora Ponta", KPILightOffPeak},
		{cans, "Variable Light (kwh/000) - Ponta", KPILightPeak},
		{cans, "Variable Light (KwH) - Fora Ponta", KPILightOffPeak},
		{cans, "Variable Light (KwH) - Ponta", KPILightPeak},
		{cans, "gas (m³/000) / (kg/000)", KPIFuel},
		{ends, "Tab Scrap  (kg/000)", "Tab Scrap (kg/000)"},
		{ends, "Consumo de Energia (kwh/000)", KPIEnergy},
	}
	for _, tc := range cases {
		k, ok := tc.plant.Lookup(tc.label)
		if !ok || k.Name != tc.want {
			t.Errorf("%s Lookup(%q) = %q, %v; want %q", tc.plant.ID, tc.label, k.Name, ok, tc.want)
		}
	}

	for _, label := range []string{"Spoilage", "Scrap (kg/000) extra", "Metal End (kg/000)"} {
		if k, ok := cans.Lookup(label); ok {
			t.Errorf("Lookup(%q) matched %q", label, k.Name)
		}
	}
}
