package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/journal"
)

func runJournal(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 || args[0] != "list" {
		fatal(errors.New("usage: ergon journal list [--kind <kind>] [--limit N]"))
	}

	cmd := flag.NewFlagSet("journal list", flag.ContinueOnError)
	kind := cmd.String("kind", "", "Filter by kind (function, shell)")
	subject := cmd.String("subject", "", "Filter by subject")
	status := cmd.String("status", "", "Filter by status (success, error)")
	limit := cmd.Int("limit", 20, "Maximum entries")
	if err := cmd.Parse(args[1:]); err != nil {
		fatal(err)
	}

	records := listJournal(ctx, cfg, journal.Filter{
		Kind:    *kind,
		Subject: *subject,
		Status:  *status,
		Limit:   *limit,
	})
	if global.JSON {
		printJSON(records)
		return
	}
	writer := newTabWriter()
	writeRow(writer, "STARTED", "KIND", "SUBJECT", "STATUS", "DURATION", "ERROR")
	for _, rec := range records {
		writeRow(writer,
			formatTime(rec.StartedAt),
			rec.Kind,
			truncateCell(rec.Subject, 40),
			rec.Status,
			(time.Duration(rec.DurationMS) * time.Millisecond).String(),
			rec.ErrorCode)
	}
	_ = writer.Flush()
}

func listJournal(ctx context.Context, cfg *config.Config, filter journal.Filter) []journal.Record {
	if cfg.Journal.Path == "" {
		fatal(errors.New("journal is disabled (journal.path is empty)"))
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, filter)
	if err != nil {
		fatal(fmt.Errorf("list journal: %w", err))
	}
	return records
}
