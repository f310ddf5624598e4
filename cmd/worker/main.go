package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harsh2517/bankrecon/internal/categorize"
	"github.com/harsh2517/bankrecon/internal/config"
	"github.com/harsh2517/bankrecon/internal/extract"
	"github.com/harsh2517/bankrecon/internal/gcs"
	infra "github.com/harsh2517/bankrecon/internal/infra/bigquery"
	"github.com/harsh2517/bankrecon/internal/jobs"
	"github.com/harsh2517/bankrecon/internal/jobs/inmemory"
	"github.com/harsh2517/bankrecon/internal/logger"
	"github.com/harsh2517/bankrecon/internal/oracle"
	"github.com/harsh2517/bankrecon/internal/pipeline"
	"github.com/harsh2517/bankrecon/internal/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gemini, err := oracle.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create oracle client")
	}

	storage, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	repo, err := infra.NewRepository(ctx, cfg.GCPProjectID, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	defer repo.Close()

	extractor := extract.NewExtractor(gemini)
	extractor.StatementYear = cfg.StatementYear

	matcher := categorize.NewMatcher()
	if cfg.SimilarityThreshold > 0 {
		matcher.Threshold = cfg.SimilarityThreshold
	}
	if cfg.AmbiguityMargin > 0 {
		matcher.AmbiguityMargin = cfg.AmbiguityMargin
	}

	svc := &pipeline.Service{
		Storage:     storage,
		Repo:        repo,
		Extractor:   extractor,
		Matcher:     matcher,
		Categorizer: categorize.NewCategorizer(gemini),
		Engine:      reconcile.NewEngine(gemini),
		Log:         log,
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount, jobStore)

	log.Info().Int("workers", cfg.WorkerCount).Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		reconJob, ok := job.(*jobs.ReconcileDocumentJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", reconJob.JobID).
			Str("gcs_uri", reconJob.GCSURI).
			Msg("Processing reconciliation job")

		summary, err := svc.ProcessDocument(ctx, pipeline.Request{
			DocumentID:          reconJob.JobID,
			GCSURI:              reconJob.GCSURI,
			DocumentType:        reconJob.DocumentType,
			BankName:            reconJob.BankName,
			OpeningBalance:      reconJob.OpeningBalance,
			ClosingBalance:      reconJob.ClosingBalance,
			AvailableGLAccounts: reconJob.AvailableGLAccounts,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", reconJob.JobID).
				Msg("Pipeline execution failed")
			return err
		}

		log.Info().
			Str("job_id", reconJob.JobID).
			Str("document_id", summary.DocumentID).
			Str("run_id", summary.RunID).
			Str("status", summary.Status).
			Int("rows", summary.RowCount).
			Msg("Pipeline execution completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
