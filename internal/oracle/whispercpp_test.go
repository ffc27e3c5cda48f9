package oracle

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

// fakeExecutor stands in for the whisper.cpp binary. On success it writes the
// transcript file the real binary would produce.
type fakeExecutor struct {
	transcript string
	err        error

	gotName string
	gotArgs []string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.gotName = name
	f.gotArgs = args
	if f.err != nil {
		return "", f.err
	}

	// The real binary writes <output-file>.txt.
	for i, a := range args {
		if a == "--output-file" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1]+".txt", []byte(f.transcript), 0644); err != nil {
				return "", err
			}
		}
	}
	return "", nil
}

func newTestWhisper(exec *fakeExecutor) *WhisperCPP {
	cfg := config.WhisperConfig{
		Backend:    "whisper",
		BinaryPath: "./whisper",
		ModelPath:  "models/ggml-base.bin",
	}
	return NewWhisperCPP(cfg, exec, logger.New("error"))
}

func TestWhisperCPPTranscribe(t *testing.T) {
	exec := &fakeExecutor{transcript: " hello there \n"}
	w := newTestWhisper(exec)

	text, err := w.Transcribe(context.Background(), []byte("fake-wav"), "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q, want %q", text, "hello there")
	}

	if exec.gotName != "./whisper" {
		t.Errorf("binary = %q, want ./whisper", exec.gotName)
	}
	joined := strings.Join(exec.gotArgs, " ")
	for _, want := range []string{"-m models/ggml-base.bin", "-otxt", "-l en"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestWhisperCPPExecutorFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	w := newTestWhisper(exec)

	if _, err := w.Transcribe(context.Background(), []byte("fake-wav"), "en"); err == nil {
		t.Fatal("Transcribe should surface the executor failure")
	}
}

func TestWhisperCPPEmptyAudio(t *testing.T) {
	w := newTestWhisper(&fakeExecutor{})

	_, err := w.Transcribe(context.Background(), nil, "en")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}
