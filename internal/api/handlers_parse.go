package api

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/proptree"
	"github.com/dgallion1/wikigest/internal/render"
)

// maxParseBytes bounds the body of a single parse request.
const maxParseBytes = 4 << 20

type parseRequest struct {
	Title           string `json:"title"`
	Text            string `json:"text"`
	StripCategories bool   `json:"strip_categories"`
}

func (p parseRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Text, validation.Required),
		validation.Field(&p.Title, validation.Length(0, 255)),
	)
}

// decodeParse reads and validates a parse request, writing the error
// response itself when it fails.
func (s *Server) decodeParse(w http.ResponseWriter, r *http.Request) (parseRequest, bool) {
	var req parseRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxParseBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (s *Server) parse(req parseRequest) *proptree.Tree {
	start := time.Now()
	tree := parser.Parse(req.Text, parser.Options{
		Debug:           s.cfg.Debug,
		StripCategories: req.StripCategories,
		MaxDepth:        s.cfg.MaxDepth,
		Logger:          s.log,
	})
	s.orchestrator.Stats().Record(time.Since(start))
	return tree
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParse(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parsed": s.parse(req)})
}

func (s *Server) handleParseHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParse(w, r)
	if !ok {
		return
	}
	html, err := render.HTML(req.Title, s.parse(req))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
