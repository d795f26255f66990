// Package api is the HTTP control surface of the daemon.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"stagelights/internal/artnet"
	"stagelights/internal/engine"
	"stagelights/internal/logger"
	"stagelights/internal/render"
	"stagelights/internal/rig"
)

// maxBody caps request bodies.
const maxBody = 1 << 16

// Options configure the server.
type Options struct {
	Version     string
	CORSOrigins []string
	// Nodes lists discovered Art-Net nodes, nil when the transport does
	// not discover any.
	Nodes func() []artnet.Node
}

// Server serves the rig over HTTP.
type Server struct {
	log      *logger.Log
	rig      *rig.Manager
	engine   *engine.Engine
	lights   *render.Builder
	opts     Options
	started  time.Time
	upgrader websocket.Upgrader
}

// New returns a server for the rig m driven by e.
func New(log *logger.Log, m *rig.Manager, e *engine.Engine, lights *render.Builder, opts Options) *Server {
	return &Server{
		log:     log.Module("api"),
		rig:     m,
		engine:  e,
		lights:  lights,
		opts:    opts,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler)

	router.Get("/health", s.handleHealth)
	router.Route("/fixtures", func(r chi.Router) {
		r.Get("/", s.handleFixtures)
		r.Get("/{name}", s.handleFixture)
		r.Patch("/{name}", s.handlePatchFixture)
	})
	router.Get("/universe", s.handleUniverse)
	router.Get("/lights", s.handleLights)
	router.Get("/nodes", s.handleNodes)
	router.Get("/ws", s.handleWS)

	return router
}

// requestLogger logs every request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.With(logger.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rig.ErrUnknownFixture):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidCommand), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
