package oracle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

// WhisperCPP implements Transcriber by shelling out to a local whisper.cpp
// binary. Each call writes the audio to a temp wav file, runs the binary, and
// reads back the text output.
type WhisperCPP struct {
	binaryPath string
	modelPath  string
	executor   executor.Executor
	logger     logger.Logger
}

var _ Transcriber = (*WhisperCPP)(nil)

// NewWhisperCPP creates a local whisper.cpp transcriber from config.
func NewWhisperCPP(cfg config.WhisperConfig, exec executor.Executor, log logger.Logger) *WhisperCPP {
	return &WhisperCPP{
		binaryPath: cfg.BinaryPath,
		modelPath:  cfg.ModelPath,
		executor:   exec,
		logger:     log,
	}
}

// Transcribe runs whisper.cpp over the audio bytes and returns the text.
func (w *WhisperCPP) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyInput
	}

	tmp, err := os.CreateTemp("", "meeting-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	tmpPath := tmp.Name()
	defer w.cleanupTempFile(ctx, tmpPath)

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp audio: %w", err)
	}

	// Whisper will append .txt to the output prefix
	outputPrefix := strings.TrimSuffix(tmpPath, filepath.Ext(tmpPath))
	txtPath := outputPrefix + ".txt"
	defer w.cleanupTempFile(ctx, txtPath)

	args := []string{
		"-m", w.modelPath,
		"-f", tmpPath,
		"-otxt",
		"-l", language,
		"--output-file", outputPrefix,
	}

	if _, err := w.executor.Execute(ctx, w.binaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	text, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	return strings.TrimSpace(string(text)), nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (w *WhisperCPP) cleanupTempFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", path, err)
	}
}
