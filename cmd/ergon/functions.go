package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/functions"
	"github.com/jllopis/ergon/pkg/journal"
	"github.com/jllopis/ergon/pkg/runtime"
)

func runFunctions(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ergon functions <list|search|exec|create|index>"))
	}

	switch args[0] {
	case "list":
		ensureNoArgs(args[1:])
		engine, cleanup := newEngine(cfg)
		defer cleanup()
		listing, err := engine.Discover()
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(listing)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "ID", "NAME", "DESCRIPTION", "TAGS")
		for _, meta := range listing {
			writeRow(writer, meta.ID, meta.Name,
				truncateCell(meta.Description, 60),
				strings.Join(meta.Tags, ","))
		}
		_ = writer.Flush()

	case "search":
		cmd := flag.NewFlagSet("functions search", flag.ContinueOnError)
		limit := cmd.Uint64("limit", 0, "Maximum results")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		query := strings.Join(cmd.Args(), " ")
		if strings.TrimSpace(query) == "" {
			fatal(errors.New("usage: ergon functions search <query> [--limit N]"))
		}

		bundle := newBundle(ctx, cfg)
		defer func() { _ = bundle.Close(context.Background()) }()

		results, err := bundle.Functions().Search(ctx, query, *limit)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(results)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "SCORE", "ID", "NAME", "DESCRIPTION")
		for _, res := range results {
			writeRow(writer,
				strconv.FormatFloat(float64(res.Score), 'f', 3, 32),
				res.Function.ID, res.Function.Name,
				truncateCell(res.Function.Description, 60))
		}
		_ = writer.Flush()

	case "exec":
		cmd := flag.NewFlagSet("functions exec", flag.ContinueOnError)
		params := cmd.String("params", "", "JSON parameter object")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if cmd.NArg() != 1 {
			fatal(errors.New("usage: ergon functions exec <id> [--params <json>]"))
		}
		decoded, err := parseParams(*params)
		if err != nil {
			fatal(err)
		}

		engine, cleanup := newEngine(cfg)
		defer cleanup()
		result, err := engine.Execute(ctx, cmd.Arg(0), decoded)
		if err != nil {
			fatal(err)
		}
		printJSON(result)

	case "create":
		cmd := flag.NewFlagSet("functions create", flag.ContinueOnError)
		file := cmd.String("file", "", "YAML function definition")
		name := cmd.String("name", "", "Function name")
		description := cmd.String("description", "", "Function description")
		category := cmd.String("category", "", "Category")
		tags := cmd.String("tags", "", "Comma-separated tags")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}

		req, err := createRequest(*file, *name, *description, *category, *tags)
		if err != nil {
			fatal(err)
		}
		engine, cleanup := newEngine(cfg)
		defer cleanup()
		meta, err := engine.Create(req)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(meta)
			return
		}
		fmt.Printf("created %s\n", meta.ID)

	case "index":
		ensureNoArgs(args[1:])
		bundle := newBundle(ctx, cfg)
		defer func() { _ = bundle.Close(context.Background()) }()

		count, err := bundle.Functions().IndexAll(ctx)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{"indexed": count})
			return
		}
		fmt.Printf("indexed %d functions\n", count)

	default:
		fatal(fmt.Errorf("unknown functions subcommand %q", args[0]))
	}
}

// newEngine builds a bare execution engine for commands that never touch
// the embedding or vector backends.
func newEngine(cfg *config.Config) (*functions.Engine, func()) {
	opts := []functions.EngineOption{}
	cleanup := func() {}
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			fatal(err)
		}
		opts = append(opts, functions.WithJournal(store))
		cleanup = func() { _ = store.Close() }
	}
	engine := functions.NewEngine(cfg.Functions.Dir, cfg.Functions.Interpreter, cfg.Functions.Runner, opts...)
	return engine, cleanup
}

func newBundle(ctx context.Context, cfg *config.Config) *runtime.Bundle {
	bundle, err := runtime.New(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	return bundle
}

func parseParams(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid --params: %w", err)
	}
	return decoded, nil
}

func createRequest(file, name, description, category, tags string) (functions.CreateRequest, error) {
	if file != "" {
		return functions.LoadSpecFile(file)
	}
	if strings.TrimSpace(name) == "" {
		return functions.CreateRequest{}, errors.New("either --file or --name is required")
	}
	req := functions.CreateRequest{
		Name:        name,
		Description: description,
		Tags:        splitList(tags),
	}
	if category != "" {
		req.Category = functions.Category{category}
	}
	return req, nil
}
