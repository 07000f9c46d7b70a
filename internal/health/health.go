package health

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/tomy27/input-recorder/internal/config"
	"github.com/tomy27/input-recorder/internal/hook"
	"github.com/tomy27/input-recorder/internal/keymap"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// CheckAll runs all preflight checks and returns combined status
func CheckAll(cfg config.Config) HealthStatus {
	checks := []CheckResult{
		checkOutputDir(cfg),
		checkKeymap(cfg),
		checkDebugAddr(cfg),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	return HealthStatus{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func checkOutputDir(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "output_dir"}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		result.Error = fmt.Sprintf("create %s: %v", cfg.Output.Dir, err)
		result.Latency = time.Since(start)
		return result
	}

	// Prove the dir is writable before a session depends on it.
	probe := filepath.Join(cfg.Output.Dir, ".recorder-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Error = fmt.Sprintf("write probe: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	os.Remove(probe)

	result.Latency = time.Since(start)
	result.OK = true
	return result
}

func checkKeymap(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "keymap"}

	m := keymap.Default()
	if cfg.Capture.KeymapPath != "" {
		var err error
		m, err = keymap.Load(cfg.Capture.KeymapPath)
		if err != nil {
			result.Error = fmt.Sprintf("load %s: %v", cfg.Capture.KeymapPath, err)
			result.Latency = time.Since(start)
			return result
		}
	}

	if _, err := m.Resolve(hook.SpecialKey("esc", 1)); err != nil {
		result.Error = fmt.Sprintf("resolve probe key: %v", err)
		result.Latency = time.Since(start)
		return result
	}

	result.Latency = time.Since(start)
	result.OK = true
	return result
}

func checkDebugAddr(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "debug_addr"}

	if cfg.Debug.Addr == "" {
		// Debug server disabled.
		result.Latency = time.Since(start)
		result.OK = true
		return result
	}

	ln, err := net.Listen("tcp", cfg.Debug.Addr)
	if err != nil {
		result.Error = fmt.Sprintf("bind %s: %v", cfg.Debug.Addr, err)
		result.Latency = time.Since(start)
		return result
	}
	ln.Close()

	result.Latency = time.Since(start)
	result.OK = true
	return result
}
