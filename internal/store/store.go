// Package store persists plant input tables between sessions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/theirongolddev/rfcst/internal/model"
)

// ErrNotFound is returned when a plant has never been saved.
var ErrNotFound = errors.New("plant inputs not found")

// Summary describes one saved plant.
type Summary struct {
	PlantID         string    `json:"plant"`
	ReforecastMonth int       `json:"reforecast_month"`
	Formats         int       `json:"formats"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store loads and saves plant inputs. Save replaces whatever was stored for
// the plant.
type Store interface {
	Load(ctx context.Context, plantID string) (model.PlantInputs, error)
	Save(ctx context.Context, in model.PlantInputs) error
	Delete(ctx context.Context, plantID string) error
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// LoadOrDefault returns the stored inputs of a plant, or fresh defaults with
// the given month and format count when nothing was saved yet.
func LoadOrDefault(ctx context.Context, s Store, plant model.Plant, month, formats int) (model.PlantInputs, error) {
	in, err := s.Load(ctx, plant.ID)
	if errors.Is(err, ErrNotFound) {
		in = model.DefaultInputs(plant, formats)
		in.ReforecastMonth = month
		return in, nil
	}
	return in, err
}
