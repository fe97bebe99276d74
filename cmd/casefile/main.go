// Command casefile processes evidentiary case documents into a queryable
// SQLite timeline: extract messages, build events, correlate attachments,
// store everything.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/casefile/dbopen"
	"github.com/hazyhaar/casefile/pipeline"
	"github.com/hazyhaar/casefile/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := newLogger(env("LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := pipeline.LoadConfig(os.Getenv("CASEFILE_CONFIG"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	switch os.Args[1] {
	case "process":
		cmdProcess(ctx, cfg, os.Args[2:])
	case "query":
		cmdQuery(ctx, cfg, os.Args[2:])
	case "stats":
		cmdStats(ctx, cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `casefile — evidentiary document timeline

usage:
  casefile process <files...>
  casefile query   [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-type TYPE]
  casefile stats

process  Extracts, correlates, and stores every given document.
query    Prints stored events in date order as JSON lines.
stats    Prints event and attachment store aggregates.

Configuration is read from the YAML file named by CASEFILE_CONFIG.
`)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openStores(cfg pipeline.Config) (*store.Events, *store.Attachments, func()) {
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	events := store.NewEvents(db)
	attachments := store.NewAttachments(db, cfg.AttachmentDir)
	for _, init := range []func() error{events.Init, attachments.Init} {
		if err := init(); err != nil {
			db.Close()
			slog.Error("init schema", "error", err)
			os.Exit(1)
		}
	}
	return events, attachments, func() { db.Close() }
}

func cmdProcess(ctx context.Context, cfg pipeline.Config, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "process requires at least one file")
		os.Exit(1)
	}

	events, attachments, closeDB := openStores(cfg)
	defer closeDB()
	p := pipeline.New(cfg, events, attachments)

	failed := 0
	for _, path := range args {
		res, err := p.Process(ctx, path)
		if err != nil {
			slog.Error("document failed", "source", path, "error", err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %d event(s), %d error(s), %d skipped\n",
			path, len(res.EventIDs), len(res.Errors), len(res.Skipped))
		for _, ue := range res.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", ue)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func cmdQuery(ctx context.Context, cfg pipeline.Config, args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	start := fs.String("start", "", "inclusive lower date bound (YYYY-MM-DD)")
	end := fs.String("end", "", "inclusive upper date bound (YYYY-MM-DD)")
	typ := fs.String("type", "", "event type filter")
	fs.Parse(args)

	var filter store.Filter
	filter.Type = *typ
	if *start != "" {
		filter.Start = parseDay(*start)
	}
	if *end != "" {
		filter.End = endOfDay(parseDay(*end))
	}

	events, _, closeDB := openStores(cfg)
	defer closeDB()

	found, err := events.Query(ctx, filter)
	if err != nil {
		slog.Error("query events", "error", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, ev := range found {
		if err := enc.Encode(ev); err != nil {
			slog.Error("encode event", "id", ev.ID, "error", err)
			os.Exit(1)
		}
	}
}

func cmdStats(ctx context.Context, cfg pipeline.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	events, attachments, closeDB := openStores(cfg)
	defer closeDB()

	es, err := events.Stats(ctx)
	if err != nil {
		slog.Error("event stats", "error", err)
		os.Exit(1)
	}
	as, err := attachments.Stats(ctx)
	if err != nil {
		slog.Error("attachment stats", "error", err)
		os.Exit(1)
	}

	out := map[string]any{"events": es, "attachments": as}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("encode stats", "error", err)
		os.Exit(1)
	}
}

func parseDay(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid date %q: use YYYY-MM-DD\n", s)
		os.Exit(1)
	}
	u := t.UTC()
	return &u
}

// endOfDay pushes a day bound to its last stored instant, so an upper bound
// includes events carrying a time of day. Store timestamps have millisecond
// precision.
func endOfDay(t *time.Time) *time.Time {
	u := t.Add(24*time.Hour - time.Millisecond)
	return &u
}
