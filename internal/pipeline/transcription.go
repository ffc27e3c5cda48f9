package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
	"github.com/nguyentantai21042004/meeting-flow/internal/oracle"
)

// TranscriptionStage is the single serial worker draining the audio ingest
// queue. It processes chunks in strict arrival order (not timestamp order;
// reordering is the ordering queue's job downstream) and keeps exactly one
// transcription call in flight, serializing load on the transcription model.
type TranscriptionStage struct {
	in          *FIFO[models.AudioChunk]
	out         *Ordering
	transcriber oracle.Transcriber
	language    string
	logger      logger.Logger
}

// NewTranscriptionStage wires the ingest queue to the ordering queue.
func NewTranscriptionStage(in *FIFO[models.AudioChunk], out *Ordering, transcriber oracle.Transcriber, language string, log logger.Logger) *TranscriptionStage {
	return &TranscriptionStage{
		in:          in,
		out:         out,
		transcriber: transcriber,
		language:    language,
		logger:      log,
	}
}

// Run drains the ingest queue until it is closed. A failed or empty
// transcription drops the chunk and the loop continues; no failure
// terminates the stage.
func (s *TranscriptionStage) Run(ctx context.Context) {
	s.logger.Info(ctx, "Transcription stage started")

	for {
		chunk, ok := s.in.Pop()
		if !ok {
			s.logger.Info(ctx, "Transcription stage stopped")
			return
		}

		text, err := s.transcriber.Transcribe(ctx, chunk.Audio, s.language)
		if err != nil {
			s.logger.Error(ctx, "Transcription failed for user %s in meeting %s: %v", chunk.UserID, chunk.MeetingID, err)
			continue
		}
		if text == "" {
			s.logger.Debug(ctx, "Empty transcription for user %s in meeting %s, dropping", chunk.UserID, chunk.MeetingID)
			continue
		}

		s.logger.Debug(ctx, "Transcribed %d bytes for meeting %s: %q", len(chunk.Audio), chunk.MeetingID, text)

		s.out.Push(models.Utterance{
			Timestamp: chunk.Timestamp,
			MeetingID: chunk.MeetingID,
			UserID:    chunk.UserID,
			Text:      text,
		})
	}
}
