package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/wikigest/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// requireDB writes a 503 and reports false when no database is configured.
func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		jsonError(w, "no database configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// handleListEntries lists stored entries, optionally for one language.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	entries, err := s.db.ListEntries(r.Context(), r.URL.Query().Get("lang"), queryLimit(r))
	if err != nil {
		jsonError(w, "failed to list entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.EntrySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleGetEntry returns one entry. Titles may contain slashes, so the title
// is the rest of the path.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	lang, err := url.PathUnescape(chi.URLParam(r, "lang"))
	if err != nil {
		jsonError(w, "invalid language", http.StatusBadRequest)
		return
	}
	title, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || title == "" {
		jsonError(w, "invalid title", http.StatusBadRequest)
		return
	}

	e, err := s.db.GetEntry(r.Context(), title, lang)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load entry: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleSearch finds entries whose parsed text contains q.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	hits, err := s.db.SearchText(r.Context(), q, queryLimit(r))
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if hits == nil {
		hits = []store.TextHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "hits": hits})
}
