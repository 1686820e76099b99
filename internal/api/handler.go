// Package api implements the HTTP surface of the orchestrator.
//
// Routes:
//
//	GET  /health                → liveness probe
//	GET  /jobs                  → list the job stream (newest first)
//	POST /jobs                  → manually seed a posting
//	GET  /jobs/{id}             → fetch one posting
//	GET  /jobs/{id}/draft       → fetch the staged draft, if any
//	POST /jobs/{id}/extract     → run requirement extraction
//	POST /jobs/{id}/match       → run match scoring
//	POST /jobs/{id}/draft       → generate and stage application materials
//	POST /jobs/{id}/commit      → dispatch the staged draft, advance to applied
//	POST /jobs/{id}/reject      → remove the posting from the stream
//	GET  /logs                  → activity event feed
//	GET  /scheduler             → checkpoint, next due time, in-flight flag
//	POST /scheduler/run         → trigger a cycle immediately
//	GET  /profile               → current candidate profile
//	PUT  /profile               → replace the candidate profile
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/agentlog"
	"github.com/DK01git/JobAutomation/internal/lifecycle"
	"github.com/DK01git/JobAutomation/internal/model"
	"github.com/DK01git/JobAutomation/internal/profile"
	"github.com/DK01git/JobAutomation/internal/scheduler"
	"github.com/DK01git/JobAutomation/internal/store"
)

// Handler holds shared dependencies.
type Handler struct {
	svc      *lifecycle.Service
	jobs     *store.Memory
	sched    *scheduler.Scheduler
	events   *agentlog.Log
	profiles *profile.Store
	logger   *zap.SugaredLogger
}

// NewHandler returns a configured Handler.
func NewHandler(
	svc *lifecycle.Service,
	jobs *store.Memory,
	sched *scheduler.Scheduler,
	events *agentlog.Log,
	profiles *profile.Store,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{svc: svc, jobs: jobs, sched: sched, events: events, profiles: profiles, logger: logger}
}

// RegisterRoutes mounts all orchestrator routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJobAction)
	mux.HandleFunc("/logs", h.handleLogs)
	mux.HandleFunc("/scheduler", h.handleSchedulerStatus)
	mux.HandleFunc("/scheduler/run", h.handleSchedulerRun)
	mux.HandleFunc("/profile", h.handleProfile)
}

// ─── Route dispatch ──────────────────────────────────────────────────────

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

// handleJobs handles GET /jobs and POST /jobs.
func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonOK(w, h.jobs.List())
	case http.MethodPost:
		h.seedJob(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobAction handles /jobs/{id} and /jobs/{id}/{action}.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch len(parts) {
	case 2:
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getJob(w, parts[1])
	case 3:
		jobID, action := parts[1], parts[2]
		if action == "draft" && r.Method == http.MethodGet {
			h.getDraft(w, jobID)
			return
		}
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch action {
		case "extract":
			h.extractJob(w, r, jobID)
		case "match":
			h.matchJob(w, r, jobID)
		case "draft":
			h.draftJob(w, r, jobID)
		case "commit":
			h.commitJob(w, r, jobID)
		case "reject":
			h.rejectJob(w, r, jobID)
		default:
			jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		}
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// ─── Individual handlers ─────────────────────────────────────────────────

func (h *Handler) seedJob(w http.ResponseWriter, r *http.Request) {
	var body model.JobPosting
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	job, err := h.svc.Seed(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonStatus(w, http.StatusCreated, job)
}

func (h *Handler) getJob(w http.ResponseWriter, jobID string) {
	job, ok := h.jobs.Get(jobID)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) getDraft(w http.ResponseWriter, jobID string) {
	if _, ok := h.jobs.Get(jobID); !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	draft, ok := h.svc.Draft(jobID)
	if !ok {
		jsonError(w, "no draft staged for this job", http.StatusNotFound)
		return
	}
	jsonOK(w, draft)
}

func (h *Handler) extractJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.svc.Extract(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) matchJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.svc.Match(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) draftJob(w http.ResponseWriter, r *http.Request, jobID string) {
	draft, err := h.svc.RequestDraft(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, draft)
}

func (h *Handler) commitJob(w http.ResponseWriter, r *http.Request, jobID string) {
	var body struct {
		EmailBody   string `json:"emailBody"`
		CoverLetter string `json:"coverLetter"`
	}
	// An empty body means commit the staged draft unedited.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	job, result, err := h.svc.CommitDraft(r.Context(), jobID, body.EmailBody, body.CoverLetter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, map[string]any{"job": job, "dispatch": result})
}

func (h *Handler) rejectJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if err := h.svc.Reject(r.Context(), jobID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, map[string]string{"status": "rejected"})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.events.Entries())
}

func (h *Handler) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	last, nextDue, running := h.sched.Status()

	resp := map[string]any{
		"cycleInFlight": running,
		"nextDue":       nextDue.UTC().Format(time.RFC3339),
	}
	if last.IsZero() {
		resp["lastCycleAt"] = nil
		resp["nextDue"] = "now"
	} else {
		resp["lastCycleAt"] = last.UTC().Format(time.RFC3339)
	}
	jsonOK(w, resp)
}

func (h *Handler) handleSchedulerRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sched.RunNow(r.Context()); err != nil {
		if errors.Is(err, scheduler.ErrCycleInFlight) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Warnw("manual cycle failed", "err", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	jsonOK(w, map[string]string{"status": "cycle complete"})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonOK(w, h.profiles.Get())
	case http.MethodPut:
		var p model.CandidateProfile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		h.profiles.Set(p)
		h.events.Append(agentlog.AgentOrchestrator, agentlog.LevelInfo, "Candidate profile updated.")
		jsonOK(w, h.profiles.Get())
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeServiceError maps lifecycle errors onto HTTP status codes. Wrapped
// provider or dispatch failures surface as 502 so clients can tell an
// upstream outage from a bad request.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *lifecycle.ValidationError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	default:
		h.logger.Warnw("upstream operation failed", "err", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, code, map[string]string{"error": msg})
}
