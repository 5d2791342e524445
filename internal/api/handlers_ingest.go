package api

import (
	"cmp"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/pipeline"
	"github.com/dgallion1/wikigest/internal/splitter"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".xml") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	req, err := s.ingestRequest(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	path, hash, err := pipeline.Spool(file, "")
	if err != nil {
		s.log.Error("spool upload failed", "filename", filename, "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	job := pipeline.NewJob(filename, path, req)
	job.ContentHash = hash
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"status":       job.Snapshot().Status,
		"content_hash": hash,
		"poll_url":     fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

// ingestRequest reads the optional job settings from the form.
func (s *Server) ingestRequest(r *http.Request) (pipeline.Request, error) {
	req := pipeline.Request{
		Adapter: r.FormValue("adapter"),
		Filter: splitter.Filter{
			Languages:  splitList(r.FormValue("languages")),
			Namespaces: s.cfg.Namespaces,
			Equality:   s.cfg.Equality,
		},
		StripCategories: s.cfg.StripCategories,
		StopOnError:     s.cfg.StopOnError,
	}
	if req.Adapter == "" {
		req.Adapter = s.cfg.Adapter
	}
	if _, err := s.orchestrator.Registry().ForName(req.Adapter); err != nil {
		return req, err
	}
	if len(req.Filter.Languages) == 0 {
		req.Filter.Languages = s.cfg.Languages
	}

	if v := r.FormValue("namespaces"); v != "" {
		var ns []int
		for _, part := range splitList(v) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return req, fmt.Errorf("invalid namespace %q", part)
			}
			ns = append(ns, n)
		}
		req.Filter.Namespaces = ns
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"equality", &req.Filter.Equality},
		{"export", &req.Export},
		{"raw", &req.Raw},
		{"strip_categories", &req.StripCategories},
		{"stop_on_error", &req.StopOnError},
	}
	for _, f := range flags {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid %s: %q", f.name, v)
		}
		*f.dst = b
	}
	return req, nil
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleAdapters(w http.ResponseWriter, r *http.Request) {
	var names []string
	for _, a := range s.orchestrator.Registry().List() {
		names = append(names, a.Name())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"adapters": names,
		"default":  cmp.Or(s.cfg.Adapter, adapter.BaseName),
	})
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
