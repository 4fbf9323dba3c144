package api

import (
	"context"
	"net/http"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/models"
	"fishery-permit/internal/store"

	"github.com/gorilla/mux"
)

type updateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required"`
}

type statusUpdateResponse struct {
	PreviousStatus models.ApplicationStatus  `json:"previousStatus"`
	Application    *models.FisheryApplication `json:"application"`
}

// trackedStatus is what the public status lookup reveals; contact details
// stay out of it.
type trackedStatus struct {
	ApplicationNumber string                   `json:"applicationNumber"`
	FisheryType       models.FisheryType       `json:"fisheryType"`
	FisheryTypeLabel  string                   `json:"fisheryTypeLabel"`
	Status            models.ApplicationStatus `json:"status"`
	EstimatedHours    *int                     `json:"estimatedHours"`
	SubmittedAt       time.Time                `json:"submittedAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	CompletedAt       *time.Time               `json:"completedAt,omitempty"`
}

// applications serves the in-memory live list when it has loaded and falls
// back to the repository otherwise.
func (s *Server) applications(ctx context.Context) ([]models.FisheryApplication, error) {
	if s.live != nil {
		if apps, ok := s.live.Snapshot(); ok {
			return apps, nil
		}
	}
	return s.repo.List(ctx)
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if filter := models.ApplicationStatus(r.URL.Query().Get("status")); filter != "" {
		if !filter.Valid() {
			s.respondError(w, r, errors.NewInvalidRequestError("unknown status filter: "+string(filter)))
			return
		}
		filtered := make([]models.FisheryApplication, 0, len(apps))
		for _, app := range apps {
			if app.Status == filter {
				filtered = append(filtered, app)
			}
		}
		apps = filtered
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
		"total":        len(apps),
	})
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.repo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, app)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		s.respondError(w, r, errors.NewApplicationValidationFailedError("unknown status: "+string(req.Status)))
		return
	}

	previous, app, err := store.TransitionStatus(r.Context(), s.repo, mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info("application status changed", map[string]interface{}{
		"applicationNumber": app.ApplicationNumber,
		"from":              previous,
		"to":                app.Status,
	})
	s.respondJSON(w, http.StatusOK, statusUpdateResponse{PreviousStatus: previous, Application: app})
}

func (s *Server) trackStatus(w http.ResponseWriter, r *http.Request) {
	app, err := s.repo.GetByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trackedStatus{
		ApplicationNumber: app.ApplicationNumber,
		FisheryType:       app.FisheryType,
		FisheryTypeLabel:  app.FisheryType.Label(),
		Status:            app.Status,
		EstimatedHours:    app.EstimatedHours,
		SubmittedAt:       app.SubmittedAt,
		UpdatedAt:         app.UpdatedAt,
		CompletedAt:       app.CompletedAt,
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.ComputeStats(apps))
}
