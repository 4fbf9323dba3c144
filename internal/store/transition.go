package store

import (
	"context"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/models"
)

type StatusStore interface {
	Get(ctx context.Context, id string) (*models.FisheryApplication, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error)
}

// TransitionStatus moves an application to status if the transition table
// allows it and returns the previous status with the updated record.
func TransitionStatus(ctx context.Context, s StatusStore, id string, status models.ApplicationStatus) (models.ApplicationStatus, *models.FisheryApplication, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if !current.Status.CanTransition(status) {
		return current.Status, nil, errors.NewInvalidStatusTransitionError(string(current.Status), string(status))
	}

	updated, err := s.UpdateStatus(ctx, id, status)
	if err != nil {
		return current.Status, nil, err
	}
	metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	return current.Status, updated, nil
}
