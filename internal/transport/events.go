package transport

import "encoding/json"

// Inbound event kinds.
const (
	EventJoinMeeting    = "join_meeting"
	EventLeaveMeeting   = "leave_meeting"
	EventSignal         = "signal"
	EventAudio          = "audio"
	EventUserTalking    = "user_talking"
	EventUserNotTalking = "user_not_talking"
)

// Outbound event kinds.
const (
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventTranscription   = "transcription"
	EventOutlierDetected = "outlier_detected"
)

// envelope is the wire format in both directions:
// {"event": "...", "data": {...}}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type joinPayload struct {
	MeetingID string `json:"meeting_id"`
}

// audioPayload carries one audio chunk; the audio field is base64 on the
// wire and decoded by encoding/json.
type audioPayload struct {
	MeetingID string `json:"meeting_id"`
	Timestamp int64  `json:"timestamp"`
	Audio     []byte `json:"audio"`
}
