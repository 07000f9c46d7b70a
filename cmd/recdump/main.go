package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/tomy27/input-recorder/internal/event"
)

func main() {
	_ = godotenv.Load()

	defaultPath := filepath.Join(envOr("OUTPUT_DIR", "recordings"), envOr("OUTPUT_FILENAME", "recording.json"))
	file := flag.String("f", defaultPath, "recording file to inspect")
	showEvents := flag.Bool("events", false, "print each event")
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	flag.Parse()

	log, err := event.ReadFile(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *asJSON {
		summary := map[string]any{
			"file":             *file,
			"events":           len(log),
			"duration_seconds": log.Duration(),
			"counts":           log.CountByType(),
			"sorted":           log.Sorted(),
		}
		if len(log) > 0 {
			summary["first"] = log[0].Timestamp
			summary["last"] = log[len(log)-1].Timestamp
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	color.Cyan("%s", *file)
	fmt.Printf("events:   %d\n", len(log))
	fmt.Printf("duration: %.3fs\n", log.Duration())
	if len(log) > 0 {
		fmt.Printf("first:    %.3fs\n", log[0].Timestamp)
		fmt.Printf("last:     %.3fs\n", log[len(log)-1].Timestamp)
	}

	counts := log.CountByType()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-18s %d\n", t, counts[event.Type(t)])
	}

	if !log.Sorted() {
		color.Yellow("warning: timestamps are not monotone")
	}

	if *showEvents {
		fmt.Println()
		for i, e := range log {
			fmt.Printf("%4d  %9.3fs  %-17s %s\n", i, e.Timestamp, e.Type, describe(e))
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func describe(e event.Event) string {
	switch d := e.Details.(type) {
	case event.ButtonDetails:
		return fmt.Sprintf("%s at (%d,%d)", d.Button, d.Location.X, d.Location.Y)
	case event.ScrollDetails:
		return fmt.Sprintf("delta (%d,%d) at (%d,%d)", d.ScrollDelta.DX, d.ScrollDelta.DY, d.Location.X, d.Location.Y)
	case event.KeyDetails:
		return d.Key
	default:
		b, _ := json.Marshal(d)
		return string(b)
	}
}
