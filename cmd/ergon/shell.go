package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/journal"
	"github.com/jllopis/ergon/pkg/shell"
)

func runShell(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ergon shell <exec|history>"))
	}

	switch args[0] {
	case "exec":
		command := strings.Join(args[1:], " ")
		if strings.TrimSpace(command) == "" {
			fatal(errors.New("usage: ergon shell exec <command>"))
		}

		opts := []shell.Option{}
		var store *journal.Store
		if cfg.Journal.Path != "" {
			var err error
			if store, err = journal.Open(cfg.Journal.Path); err != nil {
				fatal(err)
			}
			opts = append(opts, shell.WithJournal(store))
		}
		manager := shell.NewManager(cfg.Shell.Shell, cfg.Shell.Workdir, opts...)

		entry, err := manager.Execute(ctx, command)
		manager.Close()
		if store != nil {
			_ = store.Close()
		}
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(entry)
			return
		}
		fmt.Print(entry.Output)
		if entry.ExitCode != 0 {
			os.Exit(entry.ExitCode)
		}

	case "history":
		// A CLI run is a fresh session, so history comes from the journal.
		cmd := flag.NewFlagSet("shell history", flag.ContinueOnError)
		limit := cmd.Int("limit", 20, "Maximum entries")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		records := listJournal(ctx, cfg, journal.Filter{Kind: journal.KindShell, Limit: *limit})
		if global.JSON {
			printJSON(records)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "STARTED", "STATUS", "DURATION", "COMMAND")
		for _, rec := range records {
			writeRow(writer,
				formatTime(rec.StartedAt),
				rec.Status,
				(time.Duration(rec.DurationMS) * time.Millisecond).String(),
				truncateCell(rec.Subject, 80))
		}
		_ = writer.Flush()

	default:
		fatal(fmt.Errorf("unknown shell subcommand %q", args[0]))
	}
}
