// Package server exposes the graph query projections over HTTP for any
// presentation layer. All handlers are read-only against one immutable
// index, so concurrent requests need no locking.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/scholarkg/scholarkg/internal/query"
	"github.com/scholarkg/scholarkg/internal/rdf"
)

// Server routes query projections.
type Server struct {
	index  *query.Index
	logger *logrus.Logger
	router chi.Router
}

// New creates a server over the given index.
func New(index *query.Index, logger *logrus.Logger) *Server {
	s := &Server{index: index, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/papers", s.handlePapers)
	r.Get("/papers/topics", s.handlePapersByTopic)
	r.Get("/papers/{id}", s.handlePaperDetails)
	r.Get("/papers/{id}/similar", s.handleSimilarPapers)
	r.Get("/papers/{id}/organizations", s.handlePaperOrganizations)
	r.Get("/papers/{id}/people", s.handlePaperPeople)
	r.Get("/organizations", s.handleOrganizations)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.AllPapers())
}

func (s *Server) handlePapersByTopic(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.PapersByTopic())
}

func (s *Server) handlePaperDetails(w http.ResponseWriter, r *http.Request) {
	details, ok := s.index.PaperDetails(s.paperURI(r))
	if !ok {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleSimilarPapers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.SimilarPapers(s.paperURI(r)))
}

func (s *Server) handlePaperOrganizations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.OrganizationsForPaper(s.paperURI(r)))
}

func (s *Server) handlePaperPeople(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.PeopleForPaper(s.paperURI(r)))
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.index.Organizations())
}

// paperURI mints the paper URI for the id path segment, so clients address
// papers by their stable upstream identifier rather than a full URI.
func (s *Server) paperURI(r *http.Request) string {
	return rdf.PaperURI(chi.URLParam(r, "id"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
