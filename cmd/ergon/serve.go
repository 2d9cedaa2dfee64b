package main

import (
	"context"
	"flag"
	"log/slog"
	"strings"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/functions"
	"github.com/jllopis/ergon/pkg/mcp"
	"github.com/jllopis/ergon/pkg/runtime"
	"github.com/jllopis/ergon/pkg/telemetry"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	domainsFlag := cmd.String("domains", "", "Comma-separated tool domains (default: config)")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	shutdown, err := telemetry.Init("ergon", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	bundle, err := runtime.New(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = bundle.Close(context.Background()) }()

	domains := cfg.MCP.Domains
	if *domainsFlag != "" {
		domains = splitList(*domainsFlag)
	}
	tools, err := bundle.Domains(domains)
	if err != nil {
		fatal(err)
	}

	srv := mcp.NewServer("ergon", version)
	for _, tool := range tools {
		if err := srv.RegisterTool(tool.Name, tool.Description, tool.Schema, mcp.ToolHandler(tool.Handler)); err != nil {
			fatal(err)
		}
	}

	if _, err := bundle.Functions().IndexAll(ctx); err != nil {
		slog.Warn("ergon.functions.index_failed", "error", err)
	}

	watcher := functions.NewWatcher(cfg.Functions.Dir)
	watcher.OnChange(func(ctx context.Context) {
		if _, err := bundle.Functions().IndexAll(ctx); err != nil {
			slog.Warn("ergon.functions.reindex_failed", "error", err)
		}
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	slog.Info("ergon.mcp.serving",
		"domains", strings.Join(domains, ","),
		"tools", len(srv.Tools()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case <-ctx.Done():
		slog.Info("ergon.mcp.stopping")
	case err := <-errCh:
		if err != nil {
			fatal(err)
		}
	}
}
