package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustpunk/scout/internal/cli"
	"github.com/dustpunk/scout/internal/digest"
)

func runDigest(args []string) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	outPath := fs.String("out", "", "Write the rendered HTML to a file instead of sending email")
	dryRun := fs.Bool("dry-run", false, "Render without delivering")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := setupRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Digest failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	docs, err := loadDocuments(rt.cfg.ConfigDir)
	if err != nil {
		rt.logger.Error().Err(err).Msg("loading configuration documents")
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	builder := digest.NewBuilder(rt.pool, docs.prefs, docs.venues, docs.profile)
	now := time.Now()
	data, err := builder.Build(ctx, now)
	if err != nil {
		rt.logger.Error().Err(err).Msg("building digest")
		fmt.Fprintf(os.Stderr, "Failed to build digest: %v\n", err)
		return 1
	}

	html, err := digest.RenderHTML(data)
	if err != nil {
		rt.logger.Error().Err(err).Msg("rendering digest")
		fmt.Fprintf(os.Stderr, "Failed to render digest: %v\n", err)
		return 1
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(html), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outPath, err)
			return 1
		}
		fmt.Printf("Digest written to %s\n", *outPath)
		return 0
	}

	if *dryRun {
		fmt.Println(html)
		return 0
	}

	mailer := digest.NewMailer(rt.cfg, rt.logger)
	subject := fmt.Sprintf("Scout digest for %s", now.Format("Monday, January 2"))
	if err := mailer.Send(subject, html); err != nil {
		rt.logger.Error().Err(err).Msg("delivering digest")
		fmt.Fprintf(os.Stderr, "Failed to deliver digest: %v\n", err)
		return 1
	}
	return 0
}
