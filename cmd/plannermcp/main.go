package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charterstone/planner-mcp/internal/authflow"
	"github.com/charterstone/planner-mcp/internal/config"
	"github.com/charterstone/planner-mcp/internal/graph"
	"github.com/charterstone/planner-mcp/internal/oracle"
	"github.com/charterstone/planner-mcp/internal/server"
)

const preflightTimeout = 15 * time.Second

var (
	version = flag.Bool("version", false, "Print version and exit")
	debug   = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Charter & Stone MCP Server v%s\n", server.DefaultVersion)
		os.Exit(0)
	}

	// Stdout belongs to the MCP transport; all logging goes to stderr.
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

	logger.Info("starting Charter & Stone MCP server",
		"version", server.DefaultVersion,
		"plan_name", cfg.Graph.PlanName,
		"oracle_host", cfg.Oracle.Host,
	)

	broker := authflow.NewBroker(authflow.Config{
		TenantID: cfg.Graph.TenantID,
		ClientID: cfg.Graph.ClientID,
	}, authflow.NewFileCache(cfg.Graph.TokenCachePath), displayDeviceCode, logger)

	client := graph.NewClient(nil, broker, "", logger)
	planner := graph.NewPlanner(client)
	resolver := graph.NewResolver(client, cfg.Graph.PlanID, cfg.Graph.PlanName)

	sessions := oracle.NewManager(oracle.Config{
		Host:     cfg.Oracle.Host,
		Port:     cfg.Oracle.Port,
		User:     cfg.Oracle.User,
		KeyPath:  cfg.Oracle.KeyPath,
		Password: cfg.Oracle.Password,
	}, logger)
	defer sessions.Close()

	// Preflight the oracle channel so a dead host is visible at startup.
	// Graph auth stays lazy; the device prompt appears on first API call.
	preflightCtx, cancel := context.WithTimeout(context.Background(), preflightTimeout)
	if err := sessions.EnsureConnected(preflightCtx); err != nil {
		logger.Warn("oracle host not reachable, search_oracle will retry on use",
			"host", cfg.Oracle.Host,
			"error", err,
		)
	} else {
		logger.Info("oracle host connected", "host", cfg.Oracle.Host)
	}
	cancel()

	ms := server.NewMCPServer(server.Config{
		KnowledgeBasePath: cfg.Oracle.KnowledgeBasePath,
	}, planner, resolver, sessions, logger)

	if err := ms.Serve(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// displayDeviceCode surfaces the interactive auth prompt on stderr, where
// the operator can see it next to the logs.
func displayDeviceCode(verificationURL, userCode string) {
	fmt.Fprintln(os.Stderr, "============================================================")
	fmt.Fprintln(os.Stderr, "AUTHENTICATION REQUIRED")
	fmt.Fprintf(os.Stderr, "   Visit:  %s\n", verificationURL)
	fmt.Fprintf(os.Stderr, "   Code:   %s\n", userCode)
	fmt.Fprintln(os.Stderr, "   Timeout: 300 seconds")
	fmt.Fprintln(os.Stderr, "============================================================")
}
