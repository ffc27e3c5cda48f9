// Package drift detects utterances that diverge from the recent
// conversational topic of a meeting.
//
// A Detector keeps a bounded FIFO window of the most recent (sentence,
// embedding) pairs as short-term topic memory. A new sentence is an outlier
// only when its cosine distance to every window member exceeds the threshold:
// a single semantically-close recent utterance is enough to keep it on topic,
// which biases toward low false-positive rates during natural topic shifts.
package drift

import (
	"context"
	"math"

	"github.com/nguyentantai21042004/meeting-flow/internal/oracle"
)

// Defaults matching the reference embedding model (all-mpnet-base-v2, 768 dims).
const (
	DefaultThreshold  float32 = 0.8
	DefaultWindowSize         = 100
)

// Detector is a per-meeting sliding-window outlier detector. It is not safe
// for concurrent use; the registry serializes access per meeting.
type Detector struct {
	embedder   oracle.Embedder
	threshold  float32
	maxWindow  int
	sentences  []string
	embeddings [][]float32
}

// New creates a Detector. Non-positive threshold or window size fall back to
// the defaults.
func New(embedder oracle.Embedder, threshold float32, windowSize int) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Detector{
		embedder:   embedder,
		threshold:  threshold,
		maxWindow:  windowSize,
		sentences:  make([]string, 0, windowSize),
		embeddings: make([][]float32, 0, windowSize),
	}
}

// Process embeds the sentence, classifies it against the current window, and
// then appends it (evicting the oldest pair once the window is full).
//
// The first sentence always establishes the baseline topic and is never an
// outlier. An embedding failure leaves the window untouched and returns the
// error; the sentence is dropped.
func (d *Detector) Process(ctx context.Context, sentence string) (bool, error) {
	embedding, err := d.embedder.Embed(ctx, sentence)
	if err != nil {
		return false, err
	}

	isOutlier := false
	if len(d.embeddings) > 0 {
		isOutlier = true
		for _, member := range d.embeddings {
			if CosineDistance(embedding, member) <= d.threshold {
				isOutlier = false
				break
			}
		}
	}

	if len(d.sentences) == d.maxWindow {
		d.sentences = d.sentences[1:]
		d.embeddings = d.embeddings[1:]
	}
	d.sentences = append(d.sentences, sentence)
	d.embeddings = append(d.embeddings, embedding)

	return isOutlier, nil
}

// Size returns the number of pairs currently held in the window.
func (d *Detector) Size() int {
	return len(d.sentences)
}

// Sentences returns the window contents in insertion order, oldest first.
func (d *Detector) Sentences() []string {
	out := make([]string, len(d.sentences))
	copy(out, d.sentences)
	return out
}

// CosineDistance returns 1 - cosine similarity, in [0, 2]. Mismatched
// dimensions and zero vectors are treated as maximally distant.
func CosineDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 2 // zero vector has no direction
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(1 - sim)
}
