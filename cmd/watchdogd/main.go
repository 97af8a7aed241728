package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/charterstone/planner-mcp/internal/authflow"
	"github.com/charterstone/planner-mcp/internal/config"
	"github.com/charterstone/planner-mcp/internal/graph"
	"github.com/charterstone/planner-mcp/internal/watchdog"
)

var debug = flag.Bool("debug", false, "Enable debug logging")

func main() {
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	history, err := watchdog.LoadHistory(cfg.Watchdog.HistoryPath)
	if err != nil {
		logger.Error("history unreadable", "path", cfg.Watchdog.HistoryPath, "error", err)
		os.Exit(1)
	}

	broker := authflow.NewBroker(authflow.Config{
		TenantID: cfg.Graph.TenantID,
		ClientID: cfg.Graph.ClientID,
	}, authflow.NewFileCache(cfg.Graph.TokenCachePath), displayDeviceCode, logger)

	client := graph.NewClient(nil, broker, "", logger)
	planner := graph.NewPlanner(client)
	resolver := graph.NewResolver(client, cfg.Graph.PlanID, cfg.Graph.PlanName)
	notifier := watchdog.NewNotifier(cfg.Watchdog.WebhookURL, nil, logger)

	scanner := watchdog.NewScanner(
		cfg.Watchdog.FeedURLs,
		cfg.Watchdog.BucketName,
		nil,
		history,
		notifier,
		planner,
		resolver,
		logger,
	)

	logger.Info("watchdog daemon starting",
		"interval", cfg.Watchdog.ScanInterval,
		"feeds", len(cfg.Watchdog.FeedURLs),
		"bucket", cfg.Watchdog.BucketName,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runScan := func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("scan panicked", "panic", r)
			}
		}()
		if err := scanner.Scan(ctx); err != nil {
			logger.Error("scan failed", "error", err)
		}
	}

	// First pass right away so a misconfiguration is visible immediately.
	runScan()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Watchdog.ScanInterval), runScan); err != nil {
		logger.Error("failed to schedule scan", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
}

func displayDeviceCode(verificationURL, userCode string) {
	fmt.Fprintf(os.Stderr, "AUTH REQUIRED: visit %s and enter code %s\n", verificationURL, userCode)
}
