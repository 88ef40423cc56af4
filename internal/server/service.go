// Package server exposes plant inputs and reforecast runs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/rfcst/internal/logging"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/store"
)

// Catalog resolves plants by ID.
type Catalog interface {
	Plants() []model.Plant
	Plant(id string) (model.Plant, error)
}

// Config controls the server runtime behavior.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// DefaultMonth and DefaultFormats shape inputs for plants never saved.
	DefaultMonth   int
	DefaultFormats int
	Workers        int
	EventsBuffer   int
}

// Event is emitted after every reforecast run or inputs update.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	PlantID   string    `json:"plant"`
	Month     string    `json:"month"`
	Notices   int       `json:"notices"`
	Blocked   int       `json:"blocked"`
}

// Event types.
const (
	EventReforecast    = "reforecast"
	EventInputsSaved   = "inputs_saved"
	EventInputsDeleted = "inputs_deleted"
)

// Status is served at /api/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Runs            int64     `json:"runs"`
	LastRunAt       time.Time `json:"last_run_at,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service holds the HTTP API state.
type Service struct {
	cfg     Config
	store   store.Store
	catalog Catalog
	log     *logging.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	runs        int64
	lastRunAt   time.Time
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service with the provided config. A nil logger discards.
func New(cfg Config, st store.Store, catalog Catalog, log *logging.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8686"
	}
	if cfg.DefaultFormats < 1 {
		cfg.DefaultFormats = 2
	}
	if cfg.DefaultMonth < 0 || cfg.DefaultMonth >= model.MonthsPerYear {
		cfg.DefaultMonth = model.DefaultReforecastMonth
	}
	if log == nil {
		log = logging.Discard()
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		catalog:   catalog,
		log:       log.WithComponent("server"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves HTTP until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("Listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) recordRun(ev Event, err error) {
	s.mu.Lock()
	s.runs++
	s.lastRunAt = ev.Timestamp
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err == nil {
		s.publishEvent(ev)
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Runs:            s.runs,
		LastRunAt:       s.lastRunAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) recentEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
