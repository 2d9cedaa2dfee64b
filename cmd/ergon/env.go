package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/envstore"
)

func runEnv(global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ergon env <get|set|search>"))
	}
	store := envstore.New(cfg.Env.File)

	switch args[0] {
	case "get":
		if len(args) != 2 {
			fatal(errors.New("usage: ergon env get <key>"))
		}
		key := args[1]
		value, ok, err := store.Get(key)
		if err != nil {
			fatal(err)
		}
		if !ok {
			fatal(fmt.Errorf("env key not set: %s", key))
		}
		if global.JSON {
			printJSON(map[string]string{"key": key, "value": value})
			return
		}
		fmt.Println(value)

	case "set":
		if len(args) != 3 {
			fatal(errors.New("usage: ergon env set <key> <value>"))
		}
		if err := store.Set(args[1], args[2]); err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{"key": args[1], "written": true})
			return
		}
		fmt.Printf("set %s\n", args[1])

	case "search":
		cmd := flag.NewFlagSet("env search", flag.ContinueOnError)
		censor := cmd.Bool("censor", true, "Mask values beyond the first character")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if cmd.NArg() != 1 {
			fatal(errors.New("usage: ergon env search <keyword> [--censor=false]"))
		}
		entries, err := store.Search(cmd.Arg(0), *censor)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(entries)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "KEY", "VALUE")
		for _, entry := range entries {
			writeRow(writer, entry.Key, entry.Value)
		}
		_ = writer.Flush()

	default:
		fatal(fmt.Errorf("unknown env subcommand %q", args[0]))
	}
}
