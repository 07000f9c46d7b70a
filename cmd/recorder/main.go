package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/tomy27/input-recorder/internal/api"
	"github.com/tomy27/input-recorder/internal/config"
	"github.com/tomy27/input-recorder/internal/health"
	"github.com/tomy27/input-recorder/internal/hook"
	"github.com/tomy27/input-recorder/internal/keymap"
	"github.com/tomy27/input-recorder/internal/logging"
	"github.com/tomy27/input-recorder/internal/recorder"
	"github.com/tomy27/input-recorder/internal/tail"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	check := flag.Bool("check", false, "run preflight checks and exit")
	flag.Parse()

	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if *check {
		status := health.CheckAll(cfg)
		fmt.Print(status)
		if !status.OK {
			os.Exit(1)
		}
		return
	}

	log := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("config loaded",
		"output_dir", cfg.Output.Dir,
		"trim_trailing", cfg.Capture.TrimTrailing,
		"debug_addr", cfg.Debug.Addr,
	)

	km := keymap.Default()
	if cfg.Capture.KeymapPath != "" {
		km, err = keymap.Load(cfg.Capture.KeymapPath)
		if err != nil {
			log.Error("load keymap", "error", err)
			os.Exit(1)
		}
	}

	hub := tail.NewHub()
	script := hook.DemoScript()

	opts := recorder.Options{
		Keymap:       km,
		Trim:         recorder.TrimLast(cfg.Capture.TrimTrailing),
		ResetOnStart: cfg.Capture.ResetOnStart,
		MaxEvents:    cfg.Capture.MaxEvents,
		Logger:       log,
		OnEvent:      hub.Publish,
	}
	if cfg.Capture.Pointer {
		opts.Pointer = script
	}
	if cfg.Capture.Keyboard {
		opts.Keyboard = script
	}

	rec, err := recorder.New(opts)
	if err != nil {
		log.Error("build recorder", "error", err)
		os.Exit(1)
	}

	var debugSrv *http.Server
	if cfg.Debug.Addr != "" {
		h := api.NewHandlers(rec, hub, cfg.Tail.Buffer, log)
		debugSrv = &http.Server{
			Addr:              cfg.Debug.Addr,
			Handler:           api.NewRouter(h),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("debug server listening", "addr", cfg.Debug.Addr)
			if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("debug server failed", "error", err)
			}
		}()
	}

	if err := rec.Start(); err != nil {
		log.Error("start recording", "error", err)
		os.Exit(1)
	}
	color.Cyan("recording input events, press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := script.Play(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn("script playback ended early", "error", err)
			}
			return
		}
		log.Info("demo script finished, recording continues until interrupted")
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()
	log.Info("shutdown signal received, stopping recording")

	sum, err := rec.Stop()
	if err != nil {
		log.Warn("stop recording", "error", err)
	}

	path, err := rec.Export(cfg.Output.Dir, cfg.Output.Filename)
	if err != nil {
		color.Red("export failed: %v", err)
		os.Exit(1)
	}

	color.Green("saved %d events (%.1fs) to %s", sum.Events, sum.Duration.Seconds(), path)
	if sum.Trimmed > 0 {
		color.Yellow("trimmed %d trailing events from the stop gesture", sum.Trimmed)
	}
	if sum.Dropped > 0 {
		color.Yellow("dropped %d events over the configured cap", sum.Dropped)
	}

	hub.CloseAll()
	if debugSrv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = debugSrv.Shutdown(sctx)
	}
}
