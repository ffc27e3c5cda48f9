// Package api is the HTTP control surface: meeting creation and activity
// switching.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

// ContentEnqueuer receives activity content jobs for background generation.
type ContentEnqueuer interface {
	Push(job pipeline.ContentJob)
}

// Handler serves the control API.
type Handler struct {
	store  store.Store
	jobs   ContentEnqueuer
	logger logger.Logger
	now    func() time.Time
}

// New creates a Handler.
func New(st store.Store, jobs ContentEnqueuer, log logger.Logger) *Handler {
	return &Handler{
		store:  st,
		jobs:   jobs,
		logger: log,
		now:    time.Now,
	}
}

// Register mounts the control routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/meetings", h.createMeeting)
	mux.HandleFunc("POST /api/meetings/{id}/activity", h.switchActivity)
}

type createMeetingRequest struct {
	MeetingID       string            `json:"meeting_id"`
	CurrentActivity int               `json:"current_activity"`
	Role            string            `json:"role"`
	Setting         string            `json:"setting"`
	Activities      []models.Activity `json:"activities"`
}

// createMeeting persists a new meeting record and enqueues an activity
// content job for its initial activities.
func (h *Handler) createMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MeetingID == "" {
		writeError(w, http.StatusBadRequest, "meeting_id is required")
		return
	}

	meeting := models.Meeting{
		ID:              req.MeetingID,
		CurrentActivity: req.CurrentActivity,
		StartTime:       h.now().Unix(),
		Role:            req.Role,
		Setting:         req.Setting,
		Activities:      req.Activities,
	}

	if err := h.store.Create(ctx, meeting); err != nil {
		h.logger.Error(ctx, "Failed to create meeting %s: %v", req.MeetingID, err)
		writeError(w, http.StatusInternalServerError, "failed to create meeting")
		return
	}

	h.jobs.Push(pipeline.ContentJob{
		MeetingID:  req.MeetingID,
		Role:       req.Role,
		Setting:    req.Setting,
		Activities: req.Activities,
	})

	h.logger.Info(ctx, "Meeting %s created (%d activities)", req.MeetingID, len(req.Activities))
	writeJSON(w, http.StatusCreated, meeting)
}

type switchActivityRequest struct {
	Activity int `json:"activity"`
}

// switchActivity updates current_activity and stamps start_time to now.
func (h *Handler) switchActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req switchActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	startTime := h.now().Unix()
	update := models.MeetingUpdate{
		CurrentActivity: &req.Activity,
		StartTime:       &startTime,
	}

	if err := h.store.Update(ctx, id, update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meeting not found")
			return
		}
		h.logger.Error(ctx, "Failed to switch activity for meeting %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to switch activity")
		return
	}

	h.logger.Info(ctx, "Meeting %s switched to activity %d", id, req.Activity)
	writeJSON(w, http.StatusOK, map[string]any{"meeting_id": id, "current_activity": req.Activity, "start_time": startTime})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
