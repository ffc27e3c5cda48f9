package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/registry"
)

// Broadcaster delivers pipeline events to a meeting's room.
type Broadcaster interface {
	BroadcastTranscription(meetingID, userID, text string)
	BroadcastOutlier(meetingID, userID, sentence string)
}

// TranscriptAppender records transcript lines for later export. May be nil.
type TranscriptAppender interface {
	Append(meetingID, userID, text string)
}

// DetectionStage is the serial worker draining the ordering queue. Every
// utterance is broadcast to its room unconditionally; utterances judged
// off-topic by the meeting's drift detector additionally raise an outlier
// event naming the originating user.
//
// There is no backpressure to producers: if this stage falls behind, the
// ordering queue grows unbounded.
type DetectionStage struct {
	in          *Ordering
	registry    *registry.Registry
	broadcaster Broadcaster
	transcript  TranscriptAppender
	logger      logger.Logger
}

// NewDetectionStage wires the ordering queue to the registry and transport.
func NewDetectionStage(in *Ordering, reg *registry.Registry, b Broadcaster, transcript TranscriptAppender, log logger.Logger) *DetectionStage {
	return &DetectionStage{
		in:          in,
		registry:    reg,
		broadcaster: b,
		transcript:  transcript,
		logger:      log,
	}
}

// Run drains the ordering queue until it is closed.
func (s *DetectionStage) Run(ctx context.Context) {
	s.logger.Info(ctx, "Detection stage started")

	for {
		utt, ok := s.in.Pop()
		if !ok {
			s.logger.Info(ctx, "Detection stage stopped")
			return
		}

		s.broadcaster.BroadcastTranscription(utt.MeetingID, utt.UserID, utt.Text)
		if s.transcript != nil {
			s.transcript.Append(utt.MeetingID, utt.UserID, utt.Text)
		}

		// Lazily creates the detector when the meeting was never joined
		// through the normal path.
		detector := s.registry.DetectorFor(utt.MeetingID)

		isOutlier, err := detector.Process(ctx, utt.Text)
		if err != nil {
			// Sentence dropped, window untouched, no event emitted.
			s.logger.Error(ctx, "Embedding failed for meeting %s: %v", utt.MeetingID, err)
			continue
		}

		if isOutlier {
			s.logger.Warn(ctx, "Outlier detected for user %s in meeting %s: %s", utt.UserID, utt.MeetingID, utt.Text)
			s.broadcaster.BroadcastOutlier(utt.MeetingID, utt.UserID, utt.Text)
		}
	}
}
