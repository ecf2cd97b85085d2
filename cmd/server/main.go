package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/guidekb/internal/api"
	"github.com/dgallion1/guidekb/internal/config"
	"github.com/dgallion1/guidekb/internal/embed"
	"github.com/dgallion1/guidekb/internal/ingest"
	"github.com/dgallion1/guidekb/internal/judge"
	"github.com/dgallion1/guidekb/internal/llm"
	"github.com/dgallion1/guidekb/internal/parser"
	"github.com/dgallion1/guidekb/internal/pipeline"
	"github.com/dgallion1/guidekb/internal/retrieval"
	"github.com/dgallion1/guidekb/internal/segment"
	"github.com/dgallion1/guidekb/internal/store"
	"github.com/dgallion1/guidekb/internal/watch"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	st := store.NewClient(cfg.WeaviateURL, log.With("component", "store"))
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("schema init failed", "error", err)
		os.Exit(1)
	}
	embedder := embed.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaEmbedModel)
	chat := llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaChatModel)
	parser.PdftotextFallback = cfg.PDFFallbackPdftotext

	// Initialize services.
	chunkCfg := segment.ChunkConfig{MinTokens: cfg.ChunkMinTokens, MaxTokens: cfg.ChunkMaxTokens}
	ingestSvc := ingest.NewService(st, embedder, chunkCfg, log.With("component", "ingest"))
	retrievalSvc := retrieval.NewService(st, embedder, retrieval.Config{
		KInitial:  cfg.KInitial,
		KTop:      cfg.KTop,
		KExpand:   cfg.KExpand,
		PackedMin: cfg.PackedMin,
		PackedMax: cfg.PackedMax,
	}, log.With("component", "retrieval"))
	judgeSvc := judge.New(st, retrievalSvc, chat, cfg.PackedMax, log.With("component", "judge"))

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(ingestSvc, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL, log.With("component", "pipeline"))
	orch.Start(ctx)

	// Optional directory watcher.
	if cfg.WatchDir != "" {
		watcher := watch.New(cfg.WatchDir, orch, log.With("component", "watch"))
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, ingestSvc, retrievalSvc, judgeSvc, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		embedder.Close()
		chat.Close()
		st.Close()
	}()

	log.Info("starting guidekb", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
