package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
	"github.com/nguyentantai21042004/meeting-flow/internal/registry"
)

type fakeEmbedder struct {
	vecs map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := f.vecs[text]; ok {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

type recordedEvent struct {
	meetingID string
	event     string
	userID    string
	text      string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeBroadcaster) BroadcastTranscription(meetingID, userID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{meetingID, "transcription", userID, text})
}

func (f *fakeBroadcaster) BroadcastOutlier(meetingID, userID, sentence string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{meetingID, "outlier_detected", userID, sentence})
}

func TestDetectionStageBroadcastsAndDetects(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error")

	emb := &fakeEmbedder{vecs: map[string][]float32{
		"we discussed the budget": {1, 0},
		"budget looks fine":       {1, 0.01},
		"my cat likes tuna":       {-1, 0},
	}}
	reg := registry.New(emb, 0.8, 10, nil, nil, log)

	in := NewOrdering()
	b := &fakeBroadcaster{}
	stage := NewDetectionStage(in, reg, b, nil, log)

	in.Push(models.Utterance{Timestamp: 1, MeetingID: "m1", UserID: "u1", Text: "we discussed the budget"})
	in.Push(models.Utterance{Timestamp: 2, MeetingID: "m1", UserID: "u2", Text: "budget looks fine"})
	in.Push(models.Utterance{Timestamp: 3, MeetingID: "m1", UserID: "u2", Text: "my cat likes tuna"})
	in.Close()

	stage.Run(ctx)

	var transcriptions, outliers []recordedEvent
	for _, e := range b.events {
		switch e.event {
		case "transcription":
			transcriptions = append(transcriptions, e)
		case "outlier_detected":
			outliers = append(outliers, e)
		}
	}

	// Every utterance is broadcast unconditionally.
	if len(transcriptions) != 3 {
		t.Fatalf("transcription events = %d, want 3", len(transcriptions))
	}
	for i, want := range []string{"we discussed the budget", "budget looks fine", "my cat likes tuna"} {
		if transcriptions[i].text != want {
			t.Errorf("transcription %d = %q, want %q", i, transcriptions[i].text, want)
		}
	}

	// Only the off-topic sentence raises an outlier.
	if len(outliers) != 1 {
		t.Fatalf("outlier events = %d, want 1", len(outliers))
	}
	if outliers[0].userID != "u2" || outliers[0].text != "my cat likes tuna" {
		t.Errorf("outlier = %+v", outliers[0])
	}
}

func TestDetectionStageLazyDetector(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error")
	reg := registry.New(&fakeEmbedder{}, 0.8, 10, nil, nil, log)

	in := NewOrdering()
	b := &fakeBroadcaster{}
	stage := NewDetectionStage(in, reg, b, nil, log)

	// The meeting was never joined; the detector must be created lazily.
	in.Push(models.Utterance{Timestamp: 1, MeetingID: "never-joined", UserID: "u", Text: "hi"})
	in.Close()
	stage.Run(ctx)

	if len(b.events) != 1 || b.events[0].event != "transcription" {
		t.Fatalf("events = %+v, want one transcription", b.events)
	}
	if reg.DetectorFor("never-joined").Size() != 1 {
		t.Error("lazy detector did not record the sentence")
	}
}
