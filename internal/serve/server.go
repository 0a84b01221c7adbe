// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/paperflow/pkg/types"
)

// Server is the read-only HTTP surface over an Engine. All routes live
// under the configured prefix:
//
//	GET <prefix>/api/dates
//	GET <prefix>/api/papers
//	GET <prefix>/api/papers/all
//	GET <prefix>/api/paper/{id}
//	GET <prefix>/api/paper/{id}/pdf
//	GET <prefix>/api/paper/{id}/markdown
//	GET <prefix>/api/categories
//	GET <prefix>/api/stats
//	GET <prefix>/api/stats/daily
type Server struct {
	engine *Engine
	cfg    types.ServerConfig
	log    *slog.Logger
	mux    *http.ServeMux
}

// NewServer builds the route table over engine.
func NewServer(engine *Engine, cfg types.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: engine, cfg: cfg, log: log, mux: http.NewServeMux()}

	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	s.mux.HandleFunc("GET "+prefix+"/api/dates", s.handleDates)
	s.mux.HandleFunc("GET "+prefix+"/api/papers", s.handlePapers)
	s.mux.HandleFunc("GET "+prefix+"/api/papers/all", s.handleAllPapers)
	s.mux.HandleFunc("GET "+prefix+"/api/paper/{id}", s.handlePaper)
	s.mux.HandleFunc("GET "+prefix+"/api/paper/{id}/pdf", s.handlePaperFile("pdf"))
	s.mux.HandleFunc("GET "+prefix+"/api/paper/{id}/markdown", s.handlePaperFile("markdown"))
	s.mux.HandleFunc("GET "+prefix+"/api/categories", s.handleCategories)
	s.mux.HandleFunc("GET "+prefix+"/api/stats", s.handleStats)
	s.mux.HandleFunc("GET "+prefix+"/api/stats/daily", s.handleDailyStats)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks serving on the configured address.
func (s *Server) ListenAndServe() error {
	s.log.Info("serving read api", "addr", s.cfg.Addr, "prefix", s.cfg.APIPrefix)
	return http.ListenAndServe(s.cfg.Addr, s)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.engine.ListDates()
	if err != nil {
		s.internalError(w, "listing dates", err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates, "count": len(dates)})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r, defaultPapersLimit, maxPapersLimit)
	if !ok {
		return
	}
	page, err := s.engine.ListPapers(r.URL.Query().Get("date"), q)
	if err != nil {
		s.internalError(w, "listing papers", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAllPapers(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r, defaultAllPapersLimit, maxAllPapersLimit)
	if !ok {
		return
	}
	params := r.URL.Query()
	page, err := s.engine.ListAllPapers(q, params.Get("start_date"), params.Get("end_date"))
	if err != nil {
		s.internalError(w, "listing all papers", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePaper(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.GetPaper(r.PathValue("id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePaperFile(kind string) http.HandlerFunc {
	contentType := map[string]string{
		"pdf":      "application/pdf",
		"markdown": "text/markdown; charset=utf-8",
	}[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := s.engine.PaperFile(r.PathValue("id"), kind)
		if err != nil {
			s.lookupError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.engine.Categories()
	if err != nil {
		s.internalError(w, "listing categories", err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats, "count": len(cats)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		s.internalError(w, "computing stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	daily, err := s.engine.DailyStats()
	if err != nil {
		s.internalError(w, "computing daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"daily": daily, "count": len(daily)})
}

// lookupError maps engine lookup failures onto 400/404; anything else
// is an internal fault.
func (s *Server) lookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadID):
		writeError(w, http.StatusBadRequest, "malformed paper id")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "paper not found")
	default:
		s.internalError(w, "resolving paper", err)
	}
}

// internalError logs the real cause and returns a generic body so
// filesystem paths never leak.
func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.log.Error(action, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// List endpoints enforce a default and a ceiling on limit so an
// unparameterized request never returns the whole corpus.
const (
	defaultPapersLimit    = 50
	maxPapersLimit        = 200
	defaultAllPapersLimit = 100
	maxAllPapersLimit     = 500
)

// parseQuery reads the shared list parameters. A non-numeric limit or
// offset is a client error; an absent limit takes the endpoint's
// default, and one over the ceiling is clamped.
func parseQuery(w http.ResponseWriter, r *http.Request, defaultLimit, maxLimit int) (Query, bool) {
	params := r.URL.Query()
	q := Query{
		Category: params.Get("category"),
		Keyword:  params.Get("keyword"),
		Author:   params.Get("author"),
	}
	var ok bool
	if q.Limit, ok = parseIntParam(w, params.Get("limit"), "limit", defaultLimit); !ok {
		return q, false
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset, ok = parseIntParam(w, params.Get("offset"), "offset", 0); !ok {
		return q, false
	}
	return q, true
}

func parseIntParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
