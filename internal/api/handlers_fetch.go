package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dgallion1/domgest/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type fetchRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.Scheme != "http" || u.Host == "" {
		jsonError(w, "url must be an absolute http:// url", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(u.String())
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/fetch/%s", job.ID),
	})
}

func (s *Server) handleFetchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot(r.URL.Query().Get("tree") != "false")
	tree := snap.Tree
	snap.Tree = nil
	writeWithTree(w, snap, tree)
}
