package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lineal-labs/lineal/pkg/core"
)

// registerRequest is the POST /resources payload.
type registerRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	SQL         string   `json:"sql"`
	Owner       string   `json:"owner"`
	Team        string   `json:"team"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// edgeRequest is the POST /edges payload.
type edgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type errorResponse struct {
	Error string `json:"error"`
	Param string `json:"param,omitempty"`
}

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/lineage/{resource}", s.handleLineage)
	r.Post("/resources", s.handleRegister)
	r.Get("/resources/{name}", s.handleGetResource)
	r.Delete("/resources/{name}", s.handleDeregister)
	r.Post("/edges", s.handleDeclareEdge)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLineage serves GET /lineage/{resource}?direction=&depth=.
// A traversal that hits the safety bounds still returns the partial
// graph, with truncated set so callers can warn instead of trusting an
// incomplete picture.
func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	dir := core.Direction(r.URL.Query().Get("direction"))
	if dir == "" {
		dir = core.DirectionBoth
	}

	depth := -1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, &core.ValidationError{Param: "depth", Message: "must be an integer"})
			return
		}
		depth = n
	}

	graph, err := s.svc.Query(r.Context(), resource, dir, depth)
	if err != nil && !errors.Is(err, core.ErrTraversalBounds) {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &core.ValidationError{Param: "body", Message: "invalid JSON"})
		return
	}

	typ, err := core.ParseNodeType(req.Type)
	if err != nil {
		s.writeError(w, &core.ValidationError{Param: "type", Message: err.Error()})
		return
	}

	meta := core.NodeMeta{
		Owner:       req.Owner,
		Team:        req.Team,
		Description: req.Description,
		Tags:        req.Tags,
	}
	node, err := s.svc.Register(r.Context(), req.Name, typ, req.SQL, meta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	node, err := s.svc.GetNode(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeregister(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Deregister(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeclareEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &core.ValidationError{Param: "body", Message: "invalid JSON"})
		return
	}

	edge, err := s.svc.DeclareEdge(r.Context(), req.Source, req.Target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// writeError maps domain errors to HTTP statuses: missing resources are
// 404, validation failures 400, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, core.ErrResourceNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Param: verr.Param})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
