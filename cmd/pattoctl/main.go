// Command pattoctl is a thin stdout-only entrypoint that exercises the
// repository engine end to end: it watches a directory of .pn notes and
// prints every broadcast message it receives until interrupted. It is a
// smoke-test harness for the engine's public contract, not a product
// frontend — an editor integration or web UI would consume the same
// repository.Repository directly instead of shelling out to this binary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ompugao/patto/internal/buildinfo"
	"github.com/ompugao/patto/internal/config"
	"github.com/ompugao/patto/internal/repository"
)

func main() {
	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("pattoctl", pflag.ExitOnError)
	config.RegisterFlags(flags, &cfg)
	versionFlag := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("parse flags", slog.Any("err", err))
		os.Exit(1)
	}
	if *versionFlag {
		fmt.Println(buildinfo.Summary())
		os.Exit(0)
	}
	if err := config.Finalize(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(cfg.SlogLevel()),
	})).With("app", "pattoctl")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := repository.New(ctx, cfg.Root, logger, repository.Options{
		DebounceWindow:  cfg.DebounceWindow,
		BroadcastBuffer: cfg.BroadcastBuffer,
		IncludeHidden:   cfg.IncludeHidden,
		ScanConcurrency: 8,
	})
	if err != nil {
		logger.Error("repository init failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("close repository", slog.Any("err", err))
		}
	}()

	messages, unsubscribe := repo.Subscribe()
	defer unsubscribe()

	logger.Info("watching", slog.String("root", cfg.Root))
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			printMessage(msg)
		}
	}
}

func printMessage(msg repository.Message) {
	switch m := msg.(type) {
	case repository.ScanStarted:
		fmt.Printf("scan started: %d files\n", m.Total)
	case repository.ScanProgress:
		fmt.Printf("scan progress: %d/%d\n", m.Scanned, m.Total)
	case repository.ScanCompleted:
		fmt.Printf("scan completed: %d files\n", m.Total)
	case repository.FileAdded:
		fmt.Printf("file added: %s (%d links)\n", m.Path, m.Metadata.LinkCount)
	case repository.FileChanged:
		fmt.Printf("file changed: %s (%d links)\n", m.Path, m.Metadata.LinkCount)
	case repository.FileRemoved:
		fmt.Printf("file removed: %s\n", m.Path)
	case repository.BackLinksChanged:
		fmt.Printf("back-links changed: %s (%d sources)\n", m.Path, len(m.Data))
	case repository.TwoHopLinksChanged:
		fmt.Printf("two-hop links changed: %s (%d groups)\n", m.Path, len(m.Data))
	}
}
