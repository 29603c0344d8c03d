package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"topicherd/internal/config"
	"topicherd/internal/credential"
	"topicherd/internal/discourse"
	"topicherd/internal/journal"
	"topicherd/internal/notify"
	"topicherd/internal/runner"
	logx "topicherd/pkg/logx"
)

func main() {
	var topicsPath string
	flag.StringVar(&topicsPath, "topics", "", "path to topics batch file (json or yaml); overrides TOPICS_FILE")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	if topicsPath != "" {
		cfg.TopicsFile = topicsPath
	}

	logsvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File != "", Path: cfg.Logging.File},
	})
	defer logsvc.Close()

	pool, err := credential.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	client := discourse.New(discourse.Config{
		BaseURL:    cfg.DiscourseURL,
		Timeout:    cfg.HTTPTimeout,
		RatePerSec: cfg.RatePerSec,
	}, log)

	// Journal and notifier are best-effort: a broken sink downgrades to a
	// warning, the posting run still happens.
	store, err := journal.Open(journal.Config(cfg.Journal), log)
	if err != nil {
		log.Warn("journal disabled", logx.Err(err))
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	notifier, err := notify.New(notify.Config(cfg.Telegram), log)
	if err != nil {
		log.Warn("telegram notifications disabled", logx.Err(err))
		notifier = nil
	}

	r := runner.New(runner.Config{Concurrency: cfg.Concurrency}, client, pool, store, notifier, log)

	if cfg.WatchDir != "" {
		if err := r.Watch(ctx, cfg.WatchDir, cfg.RescanSchedule); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		return
	}

	sum, err := r.RunFile(ctx, cfg.TopicsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	// Per-topic failures are logged and journaled, not fatal.
	fmt.Printf("done: %d succeeded, %d failed, %d skipped\n", sum.Succeeded, sum.Failed, sum.Skipped)
}
