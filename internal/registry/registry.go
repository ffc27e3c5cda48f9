// Package registry tracks active meetings: which sessions are in each
// meeting and the drift detector owned by each meeting.
package registry

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/meeting-flow/internal/drift"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/oracle"
)

// Deleter removes the persisted meeting record when a meeting empties out.
// Deletion is best-effort; failures are logged, never propagated.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Flusher finalizes per-meeting artifacts (e.g. the transcript export) when a
// meeting closes.
type Flusher interface {
	Flush(ctx context.Context, meetingID string) error
}

// Registry owns the participant sets and drift detectors of all active
// meetings. All access to the shared maps is serialized under one mutex: a
// leave-triggered deletion must not race a concurrent lazy detector create.
type Registry struct {
	mu           sync.Mutex
	participants map[string]map[string]struct{}
	detectors    map[string]*drift.Detector

	threshold  float32
	windowSize int

	embedder oracle.Embedder
	deleter  Deleter
	flusher  Flusher
	logger   logger.Logger
}

// New creates an empty Registry. Detectors are built lazily with the given
// threshold and window size; deleter and flusher may be nil.
func New(embedder oracle.Embedder, threshold float32, windowSize int, deleter Deleter, flusher Flusher, log logger.Logger) *Registry {
	return &Registry{
		participants: make(map[string]map[string]struct{}),
		detectors:    make(map[string]*drift.Detector),
		threshold:    threshold,
		windowSize:   windowSize,
		embedder:     embedder,
		deleter:      deleter,
		flusher:      flusher,
		logger:       log,
	}
}

// SetDetectorDefaults updates the parameters used for detectors created from
// now on. Existing windows keep their original parameters.
func (r *Registry) SetDetectorDefaults(threshold float32, windowSize int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threshold = threshold
	r.windowSize = windowSize
}

// Join adds a session to a meeting, creating the meeting entry and its
// detector when the meeting is unknown. Idempotent.
func (r *Registry) Join(ctx context.Context, meetingID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[meetingID]; !ok {
		r.participants[meetingID] = make(map[string]struct{})
		r.detectors[meetingID] = drift.New(r.embedder, r.threshold, r.windowSize)
	}
	r.participants[meetingID][userID] = struct{}{}
}

// Leave removes a session from a meeting and reports whether it was a member.
// When the last participant leaves, the registry entry is deleted and the
// stored record cleanup runs.
func (r *Registry) Leave(ctx context.Context, meetingID, userID string) bool {
	r.mu.Lock()
	set, ok := r.participants[meetingID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, ok := set[userID]; !ok {
		r.mu.Unlock()
		return false
	}

	delete(set, userID)
	closed := len(set) == 0
	if closed {
		r.removeLocked(meetingID)
	}
	r.mu.Unlock()

	if closed {
		r.cleanup(ctx, meetingID)
	}
	return true
}

// Disconnect removes a session from every meeting it belongs to, applying the
// same empty-set cleanup as Leave. It returns the ids of the meetings the
// session was removed from.
func (r *Registry) Disconnect(ctx context.Context, userID string) []string {
	r.mu.Lock()
	var removed, closed []string
	for meetingID, set := range r.participants {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		removed = append(removed, meetingID)
		if len(set) == 0 {
			r.removeLocked(meetingID)
			closed = append(closed, meetingID)
		}
	}
	r.mu.Unlock()

	for _, meetingID := range closed {
		r.cleanup(ctx, meetingID)
	}
	return removed
}

// DetectorFor returns the meeting's detector, lazily creating the registry
// entry when a queued utterance references a meeting never joined through the
// normal path.
func (r *Registry) DetectorFor(meetingID string) *drift.Detector {
	r.mu.Lock()
	defer r.mu.Unlock()

	det, ok := r.detectors[meetingID]
	if !ok {
		det = drift.New(r.embedder, r.threshold, r.windowSize)
		r.detectors[meetingID] = det
		if _, ok := r.participants[meetingID]; !ok {
			r.participants[meetingID] = make(map[string]struct{})
		}
	}
	return det
}

// Participants returns a copy of the meeting's participant set.
func (r *Registry) Participants(meetingID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.participants[meetingID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// removeLocked drops the registry entry. Caller must hold r.mu.
func (r *Registry) removeLocked(meetingID string) {
	delete(r.participants, meetingID)
	delete(r.detectors, meetingID)
}

// cleanup runs the best-effort external cleanup of a closed meeting. It must
// run outside the registry mutex: flushing the transcript is file I/O and
// would stall detector lookups on the detection stage.
func (r *Registry) cleanup(ctx context.Context, meetingID string) {
	if r.flusher != nil {
		if err := r.flusher.Flush(ctx, meetingID); err != nil {
			r.logger.Warn(ctx, "Failed to flush transcript for meeting %s: %v", meetingID, err)
		}
	}
	if r.deleter != nil {
		if err := r.deleter.Delete(ctx, meetingID); err != nil {
			r.logger.Warn(ctx, "Failed to delete meeting %s from store: %v", meetingID, err)
		}
	}
	r.logger.Info(ctx, "Meeting %s closed, registry entry removed", meetingID)
}
