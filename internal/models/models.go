package models

// Activity is one agenda item inside a meeting. Title acts as the stable key
// when generated talking points are merged back into the meeting record.
type Activity struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Context     []string `json:"context,omitempty"`
}

// Meeting is the persisted meeting record. Ownership of the record belongs to
// the store; the pipeline only reads and merges it.
type Meeting struct {
	ID              string     `json:"meeting_id"`
	CurrentActivity int        `json:"current_activity"`
	StartTime       int64      `json:"start_time"` // epoch seconds
	Role            string     `json:"role"`
	Setting         string     `json:"setting"`
	Activities      []Activity `json:"activities"`
}

// MeetingUpdate is a partial update to a meeting record. Nil fields are not
// provided and must be left untouched by the store.
type MeetingUpdate struct {
	CurrentActivity *int
	StartTime       *int64
	Role            *string
	Setting         *string
	Activities      *[]Activity
}

// Empty reports whether the update carries no fields at all.
func (u MeetingUpdate) Empty() bool {
	return u.CurrentActivity == nil && u.StartTime == nil && u.Role == nil &&
		u.Setting == nil && u.Activities == nil
}

// AudioChunk is one raw audio submission from a participant, as received on
// the transport. Timestamp is client-side capture time in epoch milliseconds.
type AudioChunk struct {
	Timestamp int64
	MeetingID string
	UserID    string
	Audio     []byte
}

// Utterance is one transcribed, timestamped unit of speech. It exists only in
// transit through the pipeline and is never persisted.
type Utterance struct {
	Timestamp int64
	MeetingID string
	UserID    string
	Text      string
}
