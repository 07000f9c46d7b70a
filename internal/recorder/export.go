package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomy27/input-recorder/internal/event"
)

// DefaultFilename is used by Export when no filename is given.
const DefaultFilename = "recording.json"

// ErrRecording is returned by Export while a session is still running.
var ErrRecording = errors.New("cannot export while recording")

// Export writes the current log to dir/filename as an indented JSON array
// and returns the written path. An empty dir means the working directory
// and an empty filename means DefaultFilename. The directory is created if
// missing. Exporting is only allowed while idle.
func (r *Recorder) Export(dir, filename string) (string, error) {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		exportsTotal.WithLabelValues("rejected").Inc()
		return "", ErrRecording
	}
	snapshot := make(event.Log, len(r.log))
	copy(snapshot, r.log)
	r.mu.Unlock()

	if dir == "" {
		dir = "."
	}
	if filename == "" {
		filename = DefaultFilename
	}
	path := filepath.Join(dir, filename)

	t0 := time.Now()
	if err := writeLog(path, dir, snapshot); err != nil {
		exportsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	exportsTotal.WithLabelValues("ok").Inc()
	exportSeconds.Observe(time.Since(t0).Seconds())

	r.opts.Logger.Info("recording exported", "path", path, "events", len(snapshot))
	return path, nil
}

func writeLog(path, dir string, l event.Log) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := l.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
