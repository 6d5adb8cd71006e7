// Package server is the HTTP surface of the slide generation pipeline. It
// validates request shapes, routes to the outline producers and renderers,
// and is the single place where typed component failures become HTTP
// status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smartslide/config"
	"smartslide/deck"
	"smartslide/errs"
	"smartslide/imagegen"
	"smartslide/template"
)

// maxJSONBody bounds request bodies on the JSON endpoints.
const maxJSONBody = 1 << 20

// maxUploadBytes bounds the multipart upload endpoint.
const maxUploadBytes = 32 << 20

// OutlineGenerator produces an outline from a prompt-driven request.
type OutlineGenerator interface {
	GenerateOutline(ctx context.Context, topic string, numSlides int, language, presentationType string) (deck.Outline, error)
}

// Ingestor produces an outline from an uploaded document.
type Ingestor interface {
	Ingest(filename string, r io.Reader) (deck.Outline, error)
}

// BinaryRenderer renders an outline into presentation bytes.
type BinaryRenderer interface {
	Render(ctx context.Context, outline deck.Outline, tmpl template.Template, ptype deck.PresentationType) ([]byte, error)
}

// CloudRenderer renders an outline into a hosted slide document.
type CloudRenderer interface {
	CreateDeck(ctx context.Context, outline deck.Outline, tmpl template.Template, ptype deck.PresentationType, title string) (string, error)
}

// Server wires the pipeline components behind the HTTP surface.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	outline  OutlineGenerator
	images   *imagegen.Client
	ingestor Ingestor
	binary   BinaryRenderer
	cloud    CloudRenderer // nil when cloud rendering is not configured
}

// New assembles the server. cloud may be nil when the credentials are not
// configured; the endpoint then reports the capability as unavailable.
func New(cfg config.Config, logger *log.Logger, outline OutlineGenerator, images *imagegen.Client, ingestor Ingestor, binary BinaryRenderer, cloud CloudRenderer) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		outline:  outline,
		images:   images,
		ingestor: ingestor,
		binary:   binary,
		cloud:    cloud,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/generate-slides", s.handleGenerateSlides)
	r.Post("/generate-presentation", s.handleGeneratePresentation)
	r.Post("/create-google-slides", s.handleCreateGoogleSlides)
	r.Post("/upload-file", s.handleUploadFile)
	r.Get("/templates", s.handleTemplates)
	r.Get("/healthz", s.handleHealthz)
	if s.cfg.AdminKey != "" {
		r.Get("/admin/status", s.handleAdminStatus)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// errorEnvelope is the uniform error body. Streaming endpoints also use
// it: headers are only written after a successful render, so the error
// path never emits half a binary.
type errorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError translates a component failure into the HTTP envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := "InternalError"
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errs.ErrBadRequest):
		kind, status = "BadRequest", http.StatusBadRequest
	case errors.Is(err, errs.ErrInvalidTemplate):
		kind, status = "InvalidTemplate", http.StatusBadRequest
	case errors.Is(err, errs.ErrUnsupportedFormat):
		kind, status = "UnsupportedFormat", http.StatusBadRequest
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		kind, status = "UpstreamUnavailable", http.StatusBadGateway
	case errors.Is(err, errs.ErrUnparseableResponse):
		kind, status = "UnparseableResponse", http.StatusBadGateway
	case errors.Is(err, errs.ErrInvalidOutline):
		kind, status = "InvalidOutline", http.StatusBadGateway
	}

	if status >= 500 {
		s.logger.Error("request failed", "kind", kind, "err", err)
	} else {
		s.logger.Warn("request rejected", "kind", kind, "err", err)
	}
	writeJSON(w, status, errorEnvelope{Error: kind, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
