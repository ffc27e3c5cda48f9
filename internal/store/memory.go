package store

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

// Memory is an in-memory Store implementation for tests and local runs
// without persistence.
type Memory struct {
	mu       sync.RWMutex
	meetings map[string]models.Meeting
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{meetings: make(map[string]models.Meeting)}
}

func (m *Memory) Create(_ context.Context, meeting models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings[meeting.ID] = cloneMeeting(meeting)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (models.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meeting, ok := m.meetings[id]
	if !ok {
		return models.Meeting{}, ErrNotFound
	}
	return cloneMeeting(meeting), nil
}

func (m *Memory) Update(_ context.Context, id string, update models.MeetingUpdate) error {
	if update.Empty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[id]
	if !ok {
		return ErrNotFound
	}
	applyUpdate(&meeting, update)
	m.meetings[id] = cloneMeeting(meeting)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meetings, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// cloneMeeting copies the activities slice so callers cannot mutate stored
// state through the returned record.
func cloneMeeting(m models.Meeting) models.Meeting {
	if m.Activities != nil {
		acts := make([]models.Activity, len(m.Activities))
		copy(acts, m.Activities)
		for i := range acts {
			if acts[i].Context != nil {
				ctx := make([]string, len(acts[i].Context))
				copy(ctx, acts[i].Context)
				acts[i].Context = ctx
			}
		}
		m.Activities = acts
	}
	return m
}
