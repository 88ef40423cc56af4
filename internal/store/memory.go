package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/theirongolddev/rfcst/internal/model"
)

// Memory is a Store kept in process memory.
type Memory struct {
	mu     sync.RWMutex
	plants map[string]memoryEntry
}

type memoryEntry struct {
	inputs    model.PlantInputs
	updatedAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{plants: make(map[string]memoryEntry)}
}

// Load returns a copy of the stored inputs.
func (m *Memory) Load(_ context.Context, plantID string) (model.PlantInputs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.plants[plantID]
	if !ok {
		return model.PlantInputs{PlantID: plantID}, fmt.Errorf("%s: %w", plantID, ErrNotFound)
	}
	return clone(e.inputs), nil
}

// Save stores a copy of in.
func (m *Memory) Save(_ context.Context, in model.PlantInputs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plants[in.PlantID] = memoryEntry{inputs: clone(in), updatedAt: time.Now().UTC()}
	return nil
}

// Delete drops a plant.
func (m *Memory) Delete(_ context.Context, plantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.plants, plantID)
	return nil
}

// List summarizes every stored plant, ordered by plant ID.
func (m *Memory) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.plants))
	for id, e := range m.plants {
		out = append(out, Summary{
			PlantID:         id,
			ReforecastMonth: e.inputs.ReforecastMonth,
			Formats:         len(e.inputs.Formats),
			UpdatedAt:       e.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantID < out[j].PlantID })
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func clone(in model.PlantInputs) model.PlantInputs {
	out := in
	out.Formats = make([]model.FormatInputs, len(in.Formats))
	for i, f := range in.Formats {
		g := f
		g.Coefficients = make(map[string]model.Coefficients, len(f.Coefficients))
		for k, v := range f.Coefficients {
			g.Coefficients[k] = v
		}
		g.Overrides = make(map[string]model.Series, len(f.Overrides))
		for k, v := range f.Overrides {
			g.Overrides[k] = v
		}
		out.Formats[i] = g
	}
	return out
}
