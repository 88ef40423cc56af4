package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler returns the routed HTTP handler.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"X-Run-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)

		r.Route("/plants", func(r chi.Router) {
			r.Get("/", s.handleListPlants)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPlant)
				r.Get("/inputs", s.handleGetInputs)
				r.Put("/inputs", s.handlePutInputs)
				r.Delete("/inputs", s.handleDeleteInputs)
				r.Get("/template.xlsx", s.handleTemplate)
				r.Post("/reforecast", s.handleReforecast)
				r.Get("/reforecast.xlsx", s.handleReforecastWorkbook)
			})
		})
	})

	return r
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.LogRequest(r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start), middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
