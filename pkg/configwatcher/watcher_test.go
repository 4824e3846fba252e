package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"symposium_backend/internal/config"
	"testing"
	"time"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte("proctoring:\n  sweep_interval: 10s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- WatchConfig(ctx, file, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(file, []byte("proctoring:\n  sweep_interval: 3s\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Proctoring.SweepInterval != 3*time.Second {
			t.Fatalf("expected 3s after reload, got %v", cfg.Proctoring.SweepInterval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("watcher returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
