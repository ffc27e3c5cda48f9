package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/api"
	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/export"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
	"github.com/nguyentantai21042004/meeting-flow/internal/oracle"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/registry"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
	"github.com/nguyentantai21042004/meeting-flow/internal/transport"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

func main() {
	ctx := context.Background()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Meeting Flow server")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Transcription backend: %s", cfg.Whisper.Backend)
	log.Info(ctx, "Drift: threshold=%.2f window=%d", cfg.Drift.Threshold, cfg.Drift.WindowSize)

	// Persistence
	var st store.Store
	if cfg.Store.InMemory {
		st = store.NewMemory()
	} else {
		st, err = store.NewBadger(cfg.Store)
		if err != nil {
			log.Error(ctx, "Failed to open store: %v", err)
			os.Exit(1)
		}
	}
	defer st.Close()

	// Oracles
	openaiClient := oracle.NewOpenAI(cfg.OpenAI)
	var transcriber oracle.Transcriber = openaiClient
	if cfg.Whisper.Backend == "whisper" {
		transcriber = oracle.NewWhisperCPP(cfg.Whisper, executor.New(), log)
	}
	generator, err := oracle.NewGemini(cfg.Gemini, log)
	if err != nil {
		log.Error(ctx, "Failed to create generator: %v", err)
		os.Exit(1)
	}

	// Shared per-meeting state
	exporter := export.New(cfg.Export.Dir, log)
	reg := registry.New(openaiClient, cfg.Drift.Threshold, cfg.Drift.WindowSize, st, exporter, log)

	// Queues
	audioQueue := pipeline.NewFIFO[models.AudioChunk]()
	orderingQueue := pipeline.NewOrdering()
	jobQueue := pipeline.NewFIFO[pipeline.ContentJob]()

	// Transport + stages
	hub := transport.NewHub(reg, audioQueue, log)
	transcriptionStage := pipeline.NewTranscriptionStage(audioQueue, orderingQueue, transcriber, cfg.Whisper.Language, log)
	detectionStage := pipeline.NewDetectionStage(orderingQueue, reg, hub, exporter, log)
	contentStage := pipeline.NewContentStage(jobQueue, generator, st, cfg.Generation.Temperature, cfg.Generation.MaxTokens, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); transcriptionStage.Run(ctx) }()
	go func() { defer wg.Done(); detectionStage.Run(ctx) }()
	go func() { defer wg.Done(); contentStage.Run(ctx) }()

	// HTTP + websocket surface
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	api.New(st, jobQueue, log).Register(mux)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Config hot-reload for runtime tunables
	watcher, err := config.NewWatcher(*configPath, log, func(c *config.Config) {
		log.SetLevel(c.Logging.Level)
		reg.SetDetectorDefaults(c.Drift.Threshold, c.Drift.WindowSize)
	})
	if err != nil {
		log.Warn(ctx, "Config watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
		go func() {
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "Config watcher error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info(ctx, "========================================")
	log.Info(ctx, "Meeting Flow is ready!")
	log.Info(ctx, "Listening on %s", cfg.Server.Addr)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Server error: %v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "Server shutdown: %v", err)
	}
	hub.Shutdown()

	// Closing the queues ends the stage loops after their in-flight item.
	audioQueue.Close()
	orderingQueue.Close()
	jobQueue.Close()
	wg.Wait()

	log.Info(ctx, "Meeting Flow stopped")
}
