package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

const (
	defaultProductLimit = 50
	maxProductLimit     = 200
	defaultJobLimit     = 50
)

type submitJobRequest struct {
	URL string `json:"url"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	job, err := s.runner.Submit(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.Get(r.Context(), jobID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultJobLimit)
	jobs, err := s.jobs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []storage.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultProductLimit)
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	filter := storage.ProductFilter{
		JewelType: r.URL.Query().Get("type"),
		Metal:     r.URL.Query().Get("metal"),
		Gemstone:  r.URL.Query().Get("gemstone"),
		Vibe:      r.URL.Query().Get("vibe"),
		Limit:     limit,
		Offset:    queryInt(r, "offset", 0),
	}
	products, err := s.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	total, err := s.products.Count(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count products")
		return
	}
	if products == nil {
		products = []storage.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

func (s *Server) getFilterValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.products.FilterValues(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect filter values")
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
