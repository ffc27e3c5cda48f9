package store

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no record exists for a meeting id.
	ErrNotFound = errors.New("store: meeting not found")
)

// Store is the persistence interface for meeting records. Update applies a
// partial update: only provided fields are modified.
type Store interface {
	Create(ctx context.Context, meeting models.Meeting) error
	Get(ctx context.Context, id string) (models.Meeting, error)
	Update(ctx context.Context, id string, update models.MeetingUpdate) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// applyUpdate merges provided fields into a meeting record.
func applyUpdate(m *models.Meeting, u models.MeetingUpdate) {
	if u.CurrentActivity != nil {
		m.CurrentActivity = *u.CurrentActivity
	}
	if u.StartTime != nil {
		m.StartTime = *u.StartTime
	}
	if u.Role != nil {
		m.Role = *u.Role
	}
	if u.Setting != nil {
		m.Setting = *u.Setting
	}
	if u.Activities != nil {
		m.Activities = *u.Activities
	}
}
