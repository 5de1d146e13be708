package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/archive"
	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
	"github.com/Lemmmy/SCHardwareSurvey/internal/database"
	"github.com/Lemmmy/SCHardwareSurvey/internal/logger"
	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/quote"
	"github.com/Lemmmy/SCHardwareSurvey/internal/repository"
	"github.com/Lemmmy/SCHardwareSurvey/internal/server"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
	"github.com/Lemmmy/SCHardwareSurvey/internal/submission"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Observability)

	nr, err := logger.NewService(cfg.Observability)
	if err != nil {
		log.Fatal().Err(err).Msg("new relic")
	}
	defer nr.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, nr); err != nil {
		log.Error().Err(err).Msg("server exited")
		nr.Shutdown()
		os.Exit(1)
	}
	log.Info().Msg("bye")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, nr *logger.Service) error {
	if err := database.RunMigrations(ctx, cfg.Database.DSN(), log); err != nil {
		return err
	}
	pool, err := database.NewPool(ctx, cfg.Database, log, nr.Application())
	if err != nil {
		return err
	}
	defer pool.Close()
	store := repository.NewSubmissionRepository(pool)

	allow, err := stats.LoadAllowList(cfg.Stats.AllowListPath)
	if err != nil {
		return err
	}
	log.Info().Int("stats", allow.Len()).Msg("loaded allow-list")

	quotes, err := quote.New(cfg.Quote)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gate := submission.New(submission.Options{
		Store:        store,
		AllowList:    allow,
		MCVersion:    cfg.Client.MCVersion,
		ModVersion:   cfg.Client.ModVersion,
		Quotes:       quotes,
		QuoteTimeout: cfg.Quote.Timeout(),
		Logger:       log,
	})

	archiver, err := newArchiver(ctx, cfg, store, log, m)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Options{
		Logger:   log,
		NewRelic: nr.Application(),
		Registry: reg,
		Metrics:  m,
		Gate:     gate,
		Store:    store,
		Archiver: archiver,
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// newArchiver returns nil when no archive bucket is configured.
func newArchiver(ctx context.Context, cfg *config.Config, store archive.Source, log zerolog.Logger, m *metrics.Metrics) (*archive.Manager, error) {
	client, err := archive.NewS3Client(cfg.Archive)
	if err != nil || client == nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Msg("archive bucket check failed, uploads may fail")
	}
	interval, err := cfg.Archive.ParsedInterval()
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.Archive.Bucket).Dur("interval", interval).Msg("archive enabled")
	return archive.NewManager(store, client, interval, log, m)
}
