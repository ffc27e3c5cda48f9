// Package export accumulates transcript lines per meeting and writes them
// out as a docx document when the meeting closes.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gomutex/godocx"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 13
	titleSize = 16
)

type line struct {
	userID string
	text   string
}

// Exporter buffers transcript lines in memory until Flush writes the docx.
type Exporter struct {
	mu     sync.Mutex
	dir    string
	lines  map[string][]line
	logger logger.Logger
}

// New creates an Exporter writing into dir (created on demand).
func New(dir string, log logger.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		lines:  make(map[string][]line),
		logger: log,
	}
}

// Append records one transcript line for a meeting.
func (e *Exporter) Append(meetingID, userID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines[meetingID] = append(e.lines[meetingID], line{userID: userID, text: text})
}

// Flush writes the meeting's transcript to a timestamped docx file and drops
// the buffered lines. A meeting with no recorded lines is a no-op.
func (e *Exporter) Flush(ctx context.Context, meetingID string) error {
	e.mu.Lock()
	lines := e.lines[meetingID]
	delete(e.lines, meetingID)
	e.mu.Unlock()

	if len(lines) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	title := fmt.Sprintf("Meeting %s - %s", meetingID, time.Now().Format("2006-01-02 15:04"))
	doc.AddParagraph("").AddText(title).Font(fontName).Size(titleSize).Color("000000").Bold(true)
	doc.AddParagraph("")

	for _, l := range lines {
		p := doc.AddParagraph("")
		p.AddText(l.userID+": ").Font(fontName).Size(fontSize).Color("000000").Bold(true)
		p.AddText(l.text).Font(fontName).Size(fontSize).Color("000000")
	}

	name := fmt.Sprintf("%s_%s.docx", meetingID, time.Now().Format("20060102-150405"))
	outputPath := filepath.Join(e.dir, name)
	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	e.logger.Info(ctx, "Transcript exported: %s (%d lines)", outputPath, len(lines))
	return nil
}
