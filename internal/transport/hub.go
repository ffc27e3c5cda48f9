// Package transport is the websocket side of the meeting assistant: session
// lifecycle, room-scoped broadcast, signaling relay, and audio ingest into
// the pipeline.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

// MeetingRegistry is the hub's view of the meeting registry.
type MeetingRegistry interface {
	Join(ctx context.Context, meetingID, userID string)
	Leave(ctx context.Context, meetingID, userID string) bool
	Disconnect(ctx context.Context, userID string) []string
}

// AudioSink receives audio chunks for the transcription stage. Pushes never
// block.
type AudioSink interface {
	Push(chunk models.AudioChunk)
}

// Hub owns all websocket sessions and the room membership used for
// broadcast. One room exists per meeting; events broadcast to a room reach
// only its current members.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	rooms    map[string]map[string]*session

	registry MeetingRegistry
	audio    AudioSink
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewHub creates a Hub. The upgrader accepts any origin; authentication is
// out of scope here.
func NewHub(reg MeetingRegistry, audio AudioSink, log logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*session),
		rooms:    make(map[string]map[string]*session),
		registry: reg,
		audio:    audio,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 20,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// HandleWS upgrades the request and serves the session until the client
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "Websocket upgrade failed: %v", err)
		return
	}

	sess := newSession(uuid.NewString(), conn)

	h.mu.Lock()
	h.sessions[sess.id] = sess
	h.mu.Unlock()

	h.logger.Info(r.Context(), "Client connected: %s", sess.id)

	go sess.writePump()
	h.readLoop(r.Context(), sess)
	h.disconnect(r.Context(), sess)
}

func (h *Hub) readLoop(ctx context.Context, sess *session) {
	for {
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			h.logger.Warn(ctx, "Malformed message from %s: %v", sess.id, err)
			continue
		}

		h.dispatch(ctx, sess, env)
	}
}

func (h *Hub) dispatch(ctx context.Context, sess *session, env envelope) {
	switch env.Event {
	case EventJoinMeeting:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.MeetingID == "" {
			h.logger.Warn(ctx, "Invalid join from %s", sess.id)
			return
		}
		h.handleJoin(ctx, sess, p.MeetingID)

	case EventLeaveMeeting:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.MeetingID == "" {
			h.logger.Warn(ctx, "Invalid leave from %s", sess.id)
			return
		}
		h.handleLeave(ctx, sess, p.MeetingID)

	case EventSignal:
		h.handleSignal(ctx, sess, env.Data)

	case EventAudio:
		h.handleAudio(ctx, sess, env.Data)

	case EventUserTalking, EventUserNotTalking:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.MeetingID == "" {
			return
		}
		h.broadcast(p.MeetingID, env.Event, map[string]any{"user_id": sess.id}, sess.id)

	default:
		h.logger.Debug(ctx, "Unknown event %q from %s", env.Event, sess.id)
	}
}

func (h *Hub) handleJoin(ctx context.Context, sess *session, meetingID string) {
	h.registry.Join(ctx, meetingID, sess.id)

	h.mu.Lock()
	room, ok := h.rooms[meetingID]
	if !ok {
		room = make(map[string]*session)
		h.rooms[meetingID] = room
	}
	room[sess.id] = sess
	h.mu.Unlock()

	h.broadcast(meetingID, EventUserJoined, map[string]any{"user_id": sess.id}, sess.id)
	h.logger.Info(ctx, "User %s joined meeting %s", sess.id, meetingID)
}

func (h *Hub) handleLeave(ctx context.Context, sess *session, meetingID string) {
	if !h.registry.Leave(ctx, meetingID, sess.id) {
		return
	}

	h.broadcast(meetingID, EventUserLeft, map[string]any{"user_id": sess.id}, sess.id)
	h.removeFromRoom(meetingID, sess.id)
	h.logger.Info(ctx, "User %s left meeting %s", sess.id, meetingID)
}

// handleSignal relays an opaque payload to one target session, stamping in
// the sender's id.
func (h *Hub) handleSignal(ctx context.Context, sess *session, data json.RawMessage) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		h.logger.Warn(ctx, "Invalid signal from %s: %v", sess.id, err)
		return
	}
	target, _ := payload["target"].(string)
	if target == "" {
		return
	}
	payload["sender"] = sess.id

	h.mu.Lock()
	dest := h.sessions[target]
	h.mu.Unlock()

	if dest == nil {
		h.logger.Debug(ctx, "Signal target %s not connected", target)
		return
	}
	h.logger.Info(ctx, "Forwarding signal from %s to %s", sess.id, target)
	dest.enqueue(EventSignal, payload)
}

// handleAudio enqueues the chunk for the transcription stage. The enqueue
// never blocks the reader.
func (h *Hub) handleAudio(ctx context.Context, sess *session, data json.RawMessage) {
	var p audioPayload
	if err := json.Unmarshal(data, &p); err != nil || p.MeetingID == "" {
		h.logger.Warn(ctx, "Invalid audio payload from %s", sess.id)
		return
	}

	h.logger.Info(ctx, "Audio received from %s in meeting %s at %d", sess.id, p.MeetingID, p.Timestamp)
	h.audio.Push(models.AudioChunk{
		Timestamp: p.Timestamp,
		MeetingID: p.MeetingID,
		UserID:    sess.id,
		Audio:     p.Audio,
	})
}

// disconnect removes the session from every room and meeting it belongs to.
func (h *Hub) disconnect(ctx context.Context, sess *session) {
	h.logger.Info(ctx, "Client disconnected: %s", sess.id)

	for _, meetingID := range h.registry.Disconnect(ctx, sess.id) {
		h.broadcast(meetingID, EventUserLeft, map[string]any{"user_id": sess.id}, sess.id)
		h.removeFromRoom(meetingID, sess.id)
	}

	h.mu.Lock()
	delete(h.sessions, sess.id)
	h.mu.Unlock()

	sess.close()
}

// BroadcastTranscription implements pipeline.Broadcaster.
func (h *Hub) BroadcastTranscription(meetingID, userID, text string) {
	h.broadcast(meetingID, EventTranscription, map[string]any{"user_id": userID, "text": text}, "")
}

// BroadcastOutlier implements pipeline.Broadcaster.
func (h *Hub) BroadcastOutlier(meetingID, userID, sentence string) {
	h.broadcast(meetingID, EventOutlierDetected, map[string]any{"user_id": userID, "sentence": sentence}, "")
}

// broadcast delivers an event to every member of a room, optionally skipping
// one session id (the originator).
func (h *Hub) broadcast(meetingID, event string, data any, skipID string) {
	h.mu.Lock()
	members := make([]*session, 0, len(h.rooms[meetingID]))
	for id, s := range h.rooms[meetingID] {
		if id == skipID {
			continue
		}
		members = append(members, s)
	}
	h.mu.Unlock()

	for _, s := range members {
		if !s.enqueue(event, data) {
			h.logger.Warn(context.Background(), "Dropped %s event for slow session %s", event, s.id)
		}
	}
}

func (h *Hub) removeFromRoom(meetingID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[meetingID]; ok {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(h.rooms, meetingID)
		}
	}
}

// Shutdown closes every session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
