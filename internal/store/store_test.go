package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/theirongolddev/rfcst/internal/model"
)

var testPlant = model.Plant{
	ID: "TEST",
	KPIs: []model.KPI{
		{Name: "Spoilage (%)", Unit: model.PercentageRate},
		{Name: "Metal Can (kg/000)"},
	},
}

func sampleInputs() model.PlantInputs {
	in := model.DefaultInputs(testPlant, 2)
	in.ReforecastMonth = 7
	in.Formats[0].Name = "350ml"
	for m := range in.Formats[0].Volume {
		in.Formats[0].Volume[m] = float64(100 + m)
		in.Formats[1].Volume[m] = float64(50 * m)
	}
	in.Formats[0].Coefficients["Spoilage (%)"] = model.Coefficients{
		Monthly: model.Series{1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2.0, 2.1, 2.2},
		Annual:  1.75,
	}
	in.Formats[1].Overrides["Metal Can (kg/000)"] = model.Series{11: 9.5}
	return in
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sub", "plants.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{"sqlite": db, "memory": NewMemory()}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleInputs()
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := s.Load(ctx, "TEST")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestStore_LoadUnknownPlant(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "NOPE")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, sampleInputs()); err != nil {
				t.Fatal(err)
			}
			smaller := model.DefaultInputs(testPlant, 1)
			if err := s.Save(ctx, smaller); err != nil {
				t.Fatal(err)
			}

			got, err := s.Load(ctx, "TEST")
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Formats) != 1 {
				t.Fatalf("formats = %d, want 1", len(got.Formats))
			}
			if got.Formats[0].Volume != (model.Series{}) {
				t.Errorf("stale volume survived: %v", got.Formats[0].Volume)
			}
			if got.ReforecastMonth != model.DefaultReforecastMonth {
				t.Errorf("month = %d", got.ReforecastMonth)
			}
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			other := model.DefaultInputs(model.Plant{ID: "ALPHA"}, 3)
			if err := s.Save(ctx, sampleInputs()); err != nil {
				t.Fatal(err)
			}
			if err := s.Save(ctx, other); err != nil {
				t.Fatal(err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 || list[0].PlantID != "ALPHA" || list[1].PlantID != "TEST" {
				t.Fatalf("List = %+v", list)
			}
			if list[0].Formats != 3 || list[1].ReforecastMonth != 7 {
				t.Errorf("summary fields wrong: %+v", list)
			}

			if err := s.Delete(ctx, "TEST"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Load(ctx, "TEST"); !errors.Is(err, ErrNotFound) {
				t.Errorf("after delete err = %v", err)
			}
			if err := s.Delete(ctx, "TEST"); err != nil {
				t.Errorf("second delete: %v", err)
			}
		})
	}
}

func TestSQLite_SkipsNonFinite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "plants.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	in := sampleInputs()
	c := in.Formats[0].Coefficients["Spoilage (%)"]
	c.Annual = math.NaN()
	in.Formats[0].Coefficients["Spoilage (%)"] = c
	if err := db.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Load(ctx, "TEST")
	if err != nil {
		t.Fatal(err)
	}
	if fy := got.Formats[0].Coefficients["Spoilage (%)"].Annual; fy != 0 {
		t.Errorf("FY = %v, want 0", fy)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := sampleInputs()
	if err := m.Save(ctx, in); err != nil {
		t.Fatal(err)
	}
	in.Formats[0].Coefficients["Spoilage (%)"] = model.Coefficients{}

	got, _ := m.Load(ctx, "TEST")
	if got.Formats[0].Coefficients["Spoilage (%)"].Annual != 1.75 {
		t.Error("caller mutation leaked into the store")
	}
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in, err := LoadOrDefault(ctx, m, testPlant, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if in.ReforecastMonth != 3 || len(in.Formats) != 2 || in.Formats[1].Name != "Format_2" {
		t.Errorf("defaults = %+v", in)
	}
}
