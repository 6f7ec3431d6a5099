package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dustpunk/scout/internal/cli"
	"github.com/dustpunk/scout/internal/digest"
)

// runDaemon keeps the pipeline running on its cron schedules: ingestion on
// SCOUT_INGEST_CRON, digest delivery on SCOUT_DIGEST_CRON. Ctrl-C or
// SIGTERM drains the scheduler and exits.
func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	ingestNow := fs.Bool("ingest-now", false, "Run one ingest batch immediately on startup")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := setupRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Daemon failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	docs, err := loadDocuments(rt.cfg.ConfigDir)
	if err != nil {
		rt.logger.Error().Err(err).Msg("loading configuration documents")
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	runner := newRunner(rt, docs.sources, docs)
	builder := digest.NewBuilder(rt.pool, docs.prefs, docs.venues, docs.profile)
	mailer := digest.NewMailer(rt.cfg, rt.logger)

	ingestJob := func() {
		if _, err := runner.Run(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("scheduled ingest failed")
		}
	}
	digestJob := func() {
		now := time.Now()
		data, err := builder.Build(ctx, now)
		if err != nil {
			rt.logger.Error().Err(err).Msg("scheduled digest build failed")
			return
		}
		html, err := digest.RenderHTML(data)
		if err != nil {
			rt.logger.Error().Err(err).Msg("scheduled digest render failed")
			return
		}
		subject := fmt.Sprintf("Scout digest for %s", now.Format("Monday, January 2"))
		if err := mailer.Send(subject, html); err != nil {
			rt.logger.Error().Err(err).Msg("scheduled digest delivery failed")
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(rt.cfg.IngestCron, ingestJob); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid SCOUT_INGEST_CRON %q: %v\n", rt.cfg.IngestCron, err)
		return 2
	}
	if _, err := scheduler.AddFunc(rt.cfg.DigestCron, digestJob); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid SCOUT_DIGEST_CRON %q: %v\n", rt.cfg.DigestCron, err)
		return 2
	}

	if *ingestNow {
		ingestJob()
	}

	rt.logger.Info().
		Str("ingest_cron", rt.cfg.IngestCron).
		Str("digest_cron", rt.cfg.DigestCron).
		Msg("daemon started")

	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		rt.logger.Warn().Msg("scheduler jobs still running at shutdown deadline")
	}
	rt.logger.Info().Msg("daemon stopped")
	return 0
}
