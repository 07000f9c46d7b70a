package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tomy27/input-recorder/internal/event"
	"github.com/tomy27/input-recorder/internal/hook"
	"github.com/tomy27/input-recorder/internal/recorder"
	"github.com/tomy27/input-recorder/internal/tail"
)

func main() {
	outDir := flag.String("out", "", "output directory (default: a temp dir)")
	trim := flag.Int("trim", 2, "trailing events to trim on stop")
	keep := flag.Bool("keep", false, "keep the exported file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dir := *outDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "recorder-e2e-")
		if err != nil {
			log.Fatalf("temp dir: %v", err)
		}
		if !*keep {
			defer os.RemoveAll(dir)
		}
	}

	fmt.Printf("=== Recorder E2E Smoke Test ===\n\n")

	fmt.Println("[1] Building recorder with the demo script source...")
	hub := tail.NewHub()
	sub := hub.Subscribe(64)
	script := hook.DemoScript()
	rec, err := recorder.New(recorder.Options{
		Pointer:  script,
		Keyboard: script,
		Trim:     recorder.TrimLast(*trim),
		OnEvent:  hub.Publish,
	})
	if err != nil {
		log.Fatalf("build recorder: %v", err)
	}

	tailCount := 0
	tailDone := make(chan struct{})
	go func() {
		defer close(tailDone)
		for range sub.Events() {
			tailCount++
		}
	}()

	fmt.Println("[2] Starting recording...")
	if err := rec.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	fmt.Println("[3] Playing the input timeline...")
	if err := script.Play(ctx); err != nil {
		log.Fatalf("play: %v", err)
	}

	fmt.Println("[4] Stopping and trimming...")
	sum, err := rec.Stop()
	if err != nil {
		log.Fatalf("stop: %v", err)
	}
	fmt.Printf("    session=%s events=%d trimmed=%d duration=%s\n",
		sum.SessionID, sum.Events, sum.Trimmed, sum.Duration.Round(time.Millisecond))

	hub.CloseAll()
	<-tailDone

	fmt.Println("[5] Exporting...")
	path, err := rec.Export(dir, "e2e.json")
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("    wrote %s\n", path)

	fmt.Println("[6] Reading back and verifying...")
	logged, err := event.ReadFile(path)
	if err != nil {
		log.Fatalf("read back: %v", err)
	}

	failures := 0
	check := func(ok bool, format string, args ...any) {
		if ok {
			fmt.Printf("    ok: "+format+"\n", args...)
			return
		}
		failures++
		fmt.Printf("    FAIL: "+format+"\n", args...)
	}

	check(len(logged) == sum.Events, "exported count matches summary (%d / %d)", len(logged), sum.Events)
	check(logged.Sorted(), "timestamps are monotone")
	check(tailCount == sum.Events+sum.Trimmed, "tail saw every captured event (%d)", tailCount)

	counts := logged.CountByType()
	check(counts[event.MouseButtonDown] == 1 && counts[event.MouseButtonUp] == 1, "click captured")
	check(counts[event.MouseScroll] == 1, "scroll captured")
	check(counts[event.KeyPress] == counts[event.KeyRelease], "key presses and releases pair up")

	// The demo script ends on an esc press and release, so any trim of 2
	// or more must remove it.
	if *trim >= 2 {
		escSurvived := false
		for _, e := range logged {
			if d, ok := e.Details.(event.KeyDetails); ok && d.Key == "esc" {
				escSurvived = true
			}
		}
		check(!escSurvived, "stop gesture trimmed from the log")
	}

	if failures > 0 {
		fmt.Printf("\n%d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nall checks passed")
}
