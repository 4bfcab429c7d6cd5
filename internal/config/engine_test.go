package config

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentinelops/triage/internal/pkg/logger"
)

func writeEngineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testLog() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestLoadEngine_AppliesOverridesAndDefaults(t *testing.T) {
	path := writeEngineFile(t, `
reporting_floor: 55
confidence:
  high_water: 92
  low_water: 60
signal_weights:
  failed_login_burst: 50
auto_execute_thresholds:
  block_ip: 80
protected_entities:
  - root
  - " break-glass-admin "
breaker:
  window: 30m
`)

	store, err := LoadEngine(path, testLog())
	if err != nil {
		t.Fatalf("LoadEngine() error = %v", err)
	}
	cfg := store.Snapshot()

	if cfg.ReportingFloor != 55 {
		t.Errorf("ReportingFloor = %.0f, want 55", cfg.ReportingFloor)
	}
	if cfg.Confidence.HighWater != 92 || cfg.Confidence.LowWater != 60 {
		t.Errorf("Confidence = %+v", cfg.Confidence)
	}

	// Overridden entries win; absent entries keep built-in defaults
	if got := cfg.Weight("failed_login_burst"); got != 50 {
		t.Errorf("Weight(failed_login_burst) = %.0f, want 50", got)
	}
	if got := cfg.Weight("impossible_travel"); got != 35 {
		t.Errorf("Weight(impossible_travel) = %.0f, want default 35", got)
	}
	if got := cfg.AutoExecuteThreshold("block_ip"); got != 80 {
		t.Errorf("AutoExecuteThreshold(block_ip) = %.0f, want 80", got)
	}
	if got := cfg.AutoExecuteThreshold("lock_account"); got != 95 {
		t.Errorf("AutoExecuteThreshold(lock_account) = %.0f, want default 95", got)
	}

	// Unknown kinds fall back to the high-water mark
	if got := cfg.AutoExecuteThreshold("quarantine_host"); got != 92 {
		t.Errorf("AutoExecuteThreshold(unknown) = %.0f, want 92", got)
	}

	if !cfg.IsProtected("root") {
		t.Error("root should be protected")
	}
	if !cfg.IsProtected("break-glass-admin") {
		t.Error("whitespace around protected entries should be trimmed")
	}
	if cfg.IsProtected("user-1") {
		t.Error("user-1 should not be protected")
	}

	if cfg.Breaker.Window != 30*time.Minute {
		t.Errorf("Breaker.Window = %v, want 30m", cfg.Breaker.Window)
	}
	if cfg.Breaker.MinResolved != 5 {
		t.Errorf("Breaker.MinResolved = %d, want default 5", cfg.Breaker.MinResolved)
	}
	if cfg.Executor.BackoffBase != 200*time.Millisecond {
		t.Errorf("Executor.BackoffBase = %v, want default 200ms", cfg.Executor.BackoffBase)
	}
}

func TestLoadEngine_RejectsInvertedWaterMarks(t *testing.T) {
	path := writeEngineFile(t, `
confidence:
  high_water: 60
  low_water: 80
`)
	if _, err := LoadEngine(path, testLog()); err == nil {
		t.Fatal("LoadEngine() accepted low_water above high_water")
	}
}

func TestLoadEngine_RejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"reporting floor above 100", "reporting_floor: 150\n"},
		{"zero rate limit", "rate_limit:\n  per_hour: 0\n"},
		{"negative breaker ratio", "breaker:\n  false_positive_ratio: -0.5\n"},
		{"zero executor attempts", "executor:\n  max_attempts: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEngineFile(t, tt.yaml)
			if _, err := LoadEngine(path, testLog()); err == nil {
				t.Fatal("LoadEngine() accepted an invalid document")
			}
		})
	}
}

func TestLoadEngine_MissingFile(t *testing.T) {
	if _, err := LoadEngine(filepath.Join(t.TempDir(), "absent.yaml"), testLog()); err == nil {
		t.Fatal("LoadEngine() succeeded without a config file")
	}
}

func TestEngineStore_SnapshotSwapUnderConcurrentReaders(t *testing.T) {
	docA := "reporting_floor: 20\nconfidence:\n  high_water: 95\n  low_water: 50\n"
	docB := "reporting_floor: 35\nconfidence:\n  high_water: 85\n  low_water: 60\n"

	path := writeEngineFile(t, docA)
	store, err := LoadEngine(path, testLog())
	if err != nil {
		t.Fatalf("LoadEngine() error = %v", err)
	}

	// Every snapshot a reader sees must be wholly one document or the
	// other, never fields from both
	stop := make(chan struct{})
	var torn atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				cfg := store.Snapshot()
				fromA := cfg.ReportingFloor == 20 && cfg.Confidence.HighWater == 95 && cfg.Confidence.LowWater == 50
				fromB := cfg.ReportingFloor == 35 && cfg.Confidence.HighWater == 85 && cfg.Confidence.LowWater == 60
				if !fromA && !fromB {
					torn.Store(true)
					return
				}
			}
		}()
	}

	// Drive the same re-read-and-swap the file watcher performs
	for i := 0; i < 50; i++ {
		doc := docA
		if i%2 == 0 {
			doc = docB
		}
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := store.read()
		if err != nil {
			t.Fatalf("read() error = %v", err)
		}
		store.current.Store(cfg)
	}
	close(stop)
	wg.Wait()

	if torn.Load() {
		t.Fatal("a reader observed a snapshot mixing two documents")
	}
}

func TestEngineConfig_WeightOfUnknownSignalIsZero(t *testing.T) {
	cfg := DefaultEngineConfig()
	if got := cfg.Weight("made_up_signal"); got != 0 {
		t.Errorf("Weight(unknown) = %.0f, want 0", got)
	}
}
