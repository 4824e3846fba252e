package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"symposium_backend/internal/config"
	"symposium_backend/internal/model"
	"testing"
	"time"
)

func TestArchiveServiceWritesLocalSnapshot(t *testing.T) {
	dir := t.TempDir()
	svc := NewArchiveService(&config.Config{
		Storage:    config.StorageConfig{Type: "local", LocalPath: dir},
		Proctoring: config.ProctoringConfig{ArchiveEnabled: true},
	})
	if !svc.Enabled {
		t.Fatal("archive should be enabled")
	}

	attempt := model.TestAttempt{RoundID: 3, ParticipantID: 9, Status: model.AttemptCompleted}
	attempt.ID = "a1b2"
	url, err := svc.Archive(context.Background(), &AttemptArchive{
		Attempt:    attempt,
		Violations: []model.ViolationLog{{AttemptID: "a1b2", Kind: model.ViolationTabSwitch, Counted: true, CountAfter: 1}},
		ArchivedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if url != "/archives/attempts/3/a1b2.json" {
		t.Fatalf("unexpected url %q", url)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "attempts", "3", "a1b2.json"))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	var got AttemptArchive
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode archive: %v", err)
	}
	if got.Attempt.ID != "a1b2" || len(got.Violations) != 1 {
		t.Fatalf("unexpected archive contents %+v", got)
	}
}

func TestFinalizeArchivesWhenEnabled(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.attempts.Archive = &ArchiveService{
		Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: dir}},
		Enabled:  true,
	}
	p := f.addParticipant(t, "alice")
	f.addMCQs(t, f.round.ID, 2)
	a := f.start(t, p.ID, f.round.ID)
	f.attempts.SubmitAttempt(a.ID, p.ID)

	path := filepath.Join(dir, ArchiveObjectName(a))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected archive at %s: %v", path, err)
	}
}

func TestNewStorageProviderFallsBackToLocal(t *testing.T) {
	p := NewStorageProvider(&config.StorageConfig{Type: "minio"})
	if _, ok := p.(*LocalStorageProvider); !ok {
		t.Fatalf("expected local fallback, got %T", p)
	}
}
