package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"
	"github.com/theirongolddev/rfcst/internal/reforecast"
	"github.com/theirongolddev/rfcst/internal/sheet"
	"github.com/theirongolddev/rfcst/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxInputsBody bounds PUT/POST bodies; a full plant is a few hundred KB.
const maxInputsBody = 4 << 20

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// PlantDTO describes a catalogue plant and its saved state.
type PlantDTO struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Fuel      string     `json:"fuel,omitempty"`
	KPIs      []KPIDTO   `json:"kpis"`
	Saved     bool       `json:"saved"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// KPIDTO describes one KPI.
type KPIDTO struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ReforecastResponse carries the raw report and its grouped notices.
type ReforecastResponse struct {
	RunID   string       `json:"run_id"`
	Report  model.Report `json:"report"`
	Notices []NoticeDTO  `json:"notices"`
}

// NoticeDTO is one grouped, human-readable notice.
type NoticeDTO struct {
	Kind    model.NoticeKind `json:"kind"`
	Scope   string           `json:"scope,omitempty"`
	KPIs    []string         `json:"kpis"`
	Message string           `json:"message"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recentEvents())
}

func (s *Service) handleListPlants(w http.ResponseWriter, r *http.Request) {
	saved, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing saved plants", err)
		return
	}
	byID := make(map[string]store.Summary, len(saved))
	for _, sum := range saved {
		byID[sum.PlantID] = sum
	}

	plants := s.catalog.Plants()
	out := make([]PlantDTO, 0, len(plants))
	for _, p := range plants {
		dto := toPlantDTO(p)
		if sum, ok := byID[p.ID]; ok {
			dto.Saved = true
			at := sum.UpdatedAt
			dto.UpdatedAt = &at
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleGetPlant(w http.ResponseWriter, r *http.Request) {
	plant, ok := s.plant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPlantDTO(plant))
}

func (s *Service) handleGetInputs(w http.ResponseWriter, r *http.Request) {
	plant, ok := s.plant(w, r)
	if !ok {
		return
	}
	in, err := store.LoadOrDefault(r.Context(), s.store, plant, s.cfg.DefaultMonth, s.cfg.DefaultFormats)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading inputs", err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Service) handlePutInputs(w http.ResponseWriter, r *http.Request) {
	plant, ok := s.plant(w, r)
	if !ok {
		return
	}

	var in model.PlantInputs
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid inputs document", err)
		return
	}
	in.PlantID = plant.ID

	if err := reforecast.Validate(plant, in); err != nil {
		writeValidation(w, err)
		return
	}
	in = in.Canonical(plant)
	if err := s.store.Save(r.Context(), in); err != nil {
		writeError(w, http.StatusInternalServerError, "saving inputs", err)
		return
	}
	s.log.LogStoreOperation("save", plant.ID)
	s.publishEvent(Event{Type: EventInputsSaved, PlantID: plant.ID, Month: in.MonthLabel()})

	writeJSON(w, http.StatusOK, in)
}

func (s *Service) handleDeleteInputs(w http.ResponseWriter, r *http.Request) {
	plant, ok := s.plant(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), plant.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting inputs", err)
		return
	}
	s.log.LogStoreOperation("delete", plant.ID)
	s.publishEvent(Event{Type: EventInputsDeleted, PlantID: plant.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleTemplate(w http.ResponseWriter, r *http.Request) {
	plant, ok := s.plant(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r, s.cfg.DefaultMonth)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.xlsx"`, plant.ID))
	if err := sheet.WriteTemplate(w, plant, month, s.cfg.DefaultFormats); err != nil {
		s.log.Error("Writing template failed", "plant", plant.ID, "error", err)
	}
}

// handleReforecast runs the engine on the stored inputs, or on the request
// body when one is sent. A body is never saved.
func (s *Service) handleReforecast(w http.ResponseWriter, r *http.Request) {
	plant, report, runID, ok := s.reforecast(w, r)
	if !ok {
		return
	}
	doc := present.Build(plant, report)
	resp := ReforecastResponse{RunID: runID, Report: report, Notices: make([]NoticeDTO, 0, len(doc.Notices))}
	for _, g := range doc.Notices {
		resp.Notices = append(resp.Notices, NoticeDTO{Kind: g.Kind, Scope: g.Scope, KPIs: g.KPIs, Message: g.Message()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleReforecastWorkbook(w http.ResponseWriter, r *http.Request) {
	plant, report, _, ok := s.reforecast(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-%s-reforecast.xlsx"`, plant.ID, model.Months[report.ReforecastMonth]))
	if err := sheet.WriteReport(w, present.Build(plant, report)); err != nil {
		s.log.Error("Writing result workbook failed", "plant", plant.ID, "error", err)
	}
}

// reforecast returns the plant, its report and the run ID that tags both the
// X-Run-ID header and the published event.
func (s *Service) reforecast(w http.ResponseWriter, r *http.Request) (model.Plant, model.Report, string, bool) {
	plant, ok := s.plant(w, r)
	if !ok {
		return plant, model.Report{}, "", false
	}

	var in model.PlantInputs
	posted, err := decodeOptionalJSON(w, r, &in)
	switch {
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid inputs document", err)
		return plant, model.Report{}, "", false
	case posted:
		in.PlantID = plant.ID
	default:
		in, err = store.LoadOrDefault(r.Context(), s.store, plant, s.cfg.DefaultMonth, s.cfg.DefaultFormats)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "loading inputs", err)
			return plant, model.Report{}, "", false
		}
	}

	month, ok := monthParam(w, r, in.ReforecastMonth)
	if !ok {
		return plant, model.Report{}, "", false
	}
	in.ReforecastMonth = month

	if err := reforecast.Validate(plant, in); err != nil {
		s.recordRun(Event{Timestamp: time.Now()}, err)
		writeValidation(w, err)
		return plant, model.Report{}, "", false
	}

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)
	report := reforecast.Run(plant, in, reforecast.Options{Logger: s.log, Workers: s.cfg.Workers})
	s.recordRun(Event{
		Type:      EventReforecast,
		RunID:     runID,
		Timestamp: time.Now(),
		PlantID:   plant.ID,
		Month:     model.Months[report.ReforecastMonth],
		Notices:   len(report.Notices),
		Blocked:   len(report.NoticesOf(model.NoticeBlocked)),
	}, nil)
	return plant, report, runID, true
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Service) plant(w http.ResponseWriter, r *http.Request) (model.Plant, bool) {
	id := chi.URLParam(r, "id")
	plant, err := s.catalog.Plant(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown plant", err)
		return plant, false
	}
	return plant, true
}

func monthParam(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return fallback, true
	}
	m, err := model.MonthIndex(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return 0, false
	}
	return m, true
}

func toPlantDTO(p model.Plant) PlantDTO {
	dto := PlantDTO{ID: p.ID, Kind: string(p.Kind), Fuel: string(p.Fuel)}
	for _, k := range p.KPIs {
		dto.KPIs = append(dto.KPIs, KPIDTO{Name: k.Name, Unit: k.Unit.String()})
	}
	return dto
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputsBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeOptionalJSON decodes the body into v and reports whether there was
// one. Chunked bodies have no ContentLength, so emptiness is decided by the
// decoder.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) (bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, nil
	}
	if err := decodeJSON(w, r, v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr *reforecast.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    "inputs failed validation",
			Problems: verr.Problems,
		})
		return
	}
	writeError(w, http.StatusBadRequest, "invalid inputs", err)
}
