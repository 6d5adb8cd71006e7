package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"smartslide/deck"
	"smartslide/errs"
	"smartslide/template"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// generateSlidesRequest asks for an outline from a topic prompt.
type generateSlidesRequest struct {
	Prompt           string `json:"prompt"`
	NumSlides        int    `json:"numSlides"`
	Language         string `json:"language"`
	PresentationType string `json:"presentationType"`
}

type generateSlidesResponse struct {
	Slides deck.Outline `json:"slides"`
}

// renderRequest carries an edited outline back for rendering.
type renderRequest struct {
	Slides           deck.Outline `json:"slides"`
	Template         string       `json:"template"`
	PresentationType string       `json:"presentationType"`
	ImageStyle       string       `json:"imageStyle"`
}

type createGoogleSlidesResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleGenerateSlides(w http.ResponseWriter, r *http.Request) {
	var req generateSlidesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Prompt == "" {
		s.writeError(w, errs.Wrapf("server", "GenerateSlides", errs.ErrBadRequest, "prompt must not be empty"))
		return
	}
	if req.NumSlides < 1 {
		s.writeError(w, errs.Wrapf("server", "GenerateSlides", errs.ErrBadRequest, "numSlides must be at least 1"))
		return
	}

	outline, err := s.outline.GenerateOutline(r.Context(), req.Prompt, req.NumSlides, req.Language, req.PresentationType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateSlidesResponse{Slides: outline})
}

func (s *Server) handleGeneratePresentation(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	outline, tmpl, ptype, err := s.resolveRender(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// The binary writer cannot produce a zero-slide file; only the cloud
	// sink accepts an empty outline.
	if len(outline) == 0 {
		s.writeError(w, errs.Wrapf("server", "GeneratePresentation", errs.ErrBadRequest, "slides must not be empty"))
		return
	}

	outline = s.images.EnrichOutline(r.Context(), outline, req.ImageStyle, ptype)
	data, err := s.binary.Render(r.Context(), outline, tmpl, ptype)
	if err != nil {
		s.writeError(w, err)
		return
	}
	servePPTX(w, data, "generated_presentation.pptx")
}

func (s *Server) handleCreateGoogleSlides(w http.ResponseWriter, r *http.Request) {
	if s.cloud == nil {
		s.writeError(w, errs.Wrapf("server", "CreateGoogleSlides", errs.ErrUpstreamUnavailable, "cloud rendering is not configured"))
		return
	}
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	outline, tmpl, ptype, err := s.resolveRender(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outline = s.images.EnrichOutline(r.Context(), outline, req.ImageStyle, ptype)
	title := "Generated Presentation"
	if len(outline) > 0 {
		title = deck.StripMarkers(outline[0].Title)
	}
	url, err := s.cloud.CreateDeck(r.Context(), outline, tmpl, ptype, title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createGoogleSlidesResponse{URL: url})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, errs.Wrapf("server", "UploadFile", errs.ErrBadRequest, "parsing multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errs.Wrapf("server", "UploadFile", errs.ErrBadRequest, "missing file field: %v", err))
		return
	}
	defer file.Close()

	outline, err := s.ingestor.Ingest(header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	tmplKey := r.FormValue("template")
	if tmplKey == "" {
		tmplKey = "business"
	}
	tmpl, err := template.Resolve(tmplKey)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ptype := deck.ParsePresentationType(r.FormValue("presentationType"))

	data, err := s.binary.Render(r.Context(), outline, tmpl, ptype)
	if err != nil {
		s.writeError(w, err)
		return
	}
	servePPTX(w, data, "converted_presentation.pptx")
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"templates": template.Keys()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAdminStatus reports which optional capabilities are live. Routed
// only when an admin key is configured.
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Key") != s.cfg.AdminKey {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "Unauthorized", Details: "invalid admin key"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":         s.cfg.LLMModel,
		"imagesEnabled": s.images.Enabled(),
		"cloudEnabled":  s.cloud != nil,
	})
}

// resolveRender validates the shared render request shape. An empty slide
// list is valid and renders an empty deck.
func (s *Server) resolveRender(req renderRequest) (deck.Outline, template.Template, deck.PresentationType, error) {
	var tmpl template.Template
	if req.Slides == nil {
		req.Slides = deck.Outline{}
	}
	if err := req.Slides.Validate(); err != nil {
		return nil, tmpl, 0, errs.Wrapf("server", "render", errs.ErrBadRequest, "invalid slides: %v", err)
	}
	key := req.Template
	if key == "" {
		key = "business"
	}
	tmpl, err := template.Resolve(key)
	if err != nil {
		return nil, tmpl, 0, err
	}
	return req.Slides, tmpl, deck.ParsePresentationType(req.PresentationType), nil
}

// decodeJSON reads a bounded JSON body into v. Malformed bodies are the
// client's fault.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrapf("server", "decode", errs.ErrBadRequest, "invalid request body: %v", err)
	}
	return nil
}

// servePPTX writes headers only after the render succeeded, so failures
// still produce the JSON envelope.
func servePPTX(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", pptxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
