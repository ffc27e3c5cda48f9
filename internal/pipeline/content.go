package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
	"github.com/nguyentantai21042004/meeting-flow/internal/oracle"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

// ContentJob asks for talking points to be generated for a meeting's
// activities and merged into the stored record.
type ContentJob struct {
	MeetingID  string
	Role       string
	Setting    string
	Activities []models.Activity
}

// ContentStage is the serial worker draining the activity content job queue.
// For each activity it generates raw text, cleans it into sentences, and
// merges the result into the meeting record by activity title.
//
// The merge is a read-modify-write against external state with no
// transactional isolation across jobs: two jobs updating the same meeting can
// lose one writer's change (last-write-wins at full-list granularity).
type ContentStage struct {
	in          *FIFO[ContentJob]
	generator   oracle.Generator
	store       store.Store
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

// NewContentStage wires the job queue to the generator and store.
func NewContentStage(in *FIFO[ContentJob], gen oracle.Generator, st store.Store, temperature float32, maxTokens int, log logger.Logger) *ContentStage {
	return &ContentStage{
		in:          in,
		generator:   gen,
		store:       st,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      log,
	}
}

// Run drains the job queue until it is closed. Failures abandon the current
// activity or job and never terminate the loop.
func (s *ContentStage) Run(ctx context.Context) {
	s.logger.Info(ctx, "Content stage started")

	for {
		job, ok := s.in.Pop()
		if !ok {
			s.logger.Info(ctx, "Content stage stopped")
			return
		}
		s.processJob(ctx, job)
	}
}

func (s *ContentStage) processJob(ctx context.Context, job ContentJob) {
	s.logger.Info(ctx, "Generating content for meeting %s (%d activities)", job.MeetingID, len(job.Activities))

	for _, activity := range job.Activities {
		systemPrompt := fmt.Sprintf("You are a %s in a %s setting. You will be %s.", job.Role, job.Setting, activity.Description)

		raw, err := s.generator.Generate(ctx, systemPrompt, "Say something", s.temperature, s.maxTokens)
		if err != nil {
			s.logger.Error(ctx, "Generation failed for activity %q in meeting %s: %v", activity.Title, job.MeetingID, err)
			continue
		}

		updated := models.Activity{
			Title:       activity.Title,
			Description: activity.Description,
			Duration:    activity.Duration,
			Context:     SplitSentences(raw),
		}

		if err := s.mergeActivity(ctx, job.MeetingID, updated); err != nil {
			s.logger.Error(ctx, "Merge failed for activity %q in meeting %s: %v", activity.Title, job.MeetingID, err)
		}
	}
}

// mergeActivity fetches the meeting record, replaces the first activity with
// a matching title in place, and overwrites the whole activities list. A
// missing title leaves the list unmodified; the write still happens. A
// missing meeting abandons the merge.
func (s *ContentStage) mergeActivity(ctx context.Context, meetingID string, updated models.Activity) error {
	meeting, err := s.store.Get(ctx, meetingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("meeting %s not in store, merge abandoned", meetingID)
		}
		return err
	}

	activities := meeting.Activities
	for i, act := range activities {
		if act.Title == updated.Title {
			activities[i] = updated
			break
		}
	}

	return s.store.Update(ctx, meetingID, models.MeetingUpdate{Activities: &activities})
}

// SplitSentences cleans raw generated text into a sentence list. The text is
// split on '.'; the final fragment is always discarded: it is either
// truncated text with no terminator or the empty remainder after a trailing
// terminator. Each kept fragment is whitespace-trimmed.
func SplitSentences(raw string) []string {
	parts := strings.Split(raw, ".")
	parts = parts[:len(parts)-1]

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		sentences = append(sentences, strings.TrimSpace(p))
	}
	return sentences
}
