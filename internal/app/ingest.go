package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustpunk/scout/internal/cli"
	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/ingest"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	onlySource := fs.String("source", "", "Run a single source by name (default: all enabled)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := setupRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	docs, err := loadDocuments(rt.cfg.ConfigDir)
	if err != nil {
		rt.logger.Error().Err(err).Msg("loading configuration documents")
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	sources := docs.sources
	if *onlySource != "" {
		sources = nil
		for _, src := range docs.sources {
			if src.Name == *onlySource {
				sources = append(sources, src)
			}
		}
		if len(sources) == 0 {
			fmt.Fprintf(os.Stderr, "No source named %q in sources.yaml\n", *onlySource)
			return 2
		}
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

	runner := newRunner(rt, sources, docs)
	run, err := runner.Run(ctx)
	if err != nil {
		rt.logger.Error().Err(err).Msg("ingest batch failed")
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf("Ingest %s: %d/%d sources ok, %d events parsed, %d stored, %d dupes merged, %d enriched\n",
		run.Status, run.SourcesOK, run.SourcesOK+run.SourcesFailed,
		run.EventsParsed, run.EventsStored, run.DupesMerged, run.Enriched)
	if run.Status == db.RunStatusFailed {
		return 1
	}
	return 0
}

func newRunner(rt *runtime, sources []config.SourceConfig, docs *documents) *ingest.Runner {
	deps := ingest.Deps{
		Fetcher:            ingest.NewFetcher(rt.logger),
		Logger:             rt.logger,
		TicketmasterAPIKey: rt.cfg.TicketmasterAPIKey,
	}
	return ingest.NewRunner(rt.pool, sources, docs.venues, deps)
}
