package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "lab.json"))
}

func TestFileStoreInitializesDefaults(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Seats) != 17 {
		t.Fatalf("got %d seats, want 17", len(snap.Seats))
	}
	var free, maint int
	for _, s := range snap.Seats {
		switch s.Status {
		case model.SeatFree:
			free++
		case model.SeatMaintenance:
			maint++
		}
	}
	if free != 16 || maint != 1 {
		t.Fatalf("partition = %d free / %d maintenance, want 16/1", free, maint)
	}
	if len(snap.Users) != 0 || len(snap.Sessions) != 0 || len(snap.Logs) != 0 {
		t.Fatalf("fresh snapshot not empty: %+v", snap)
	}
	if snap.Statistics.TotalSeats != 17 || snap.Statistics.MaintenanceSeats != 1 {
		t.Fatalf("statistics mismatch: %+v", snap.Statistics)
	}

	// the default layout was persisted
	if _, err := os.Stat(st.path); err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap.Users = append(snap.Users, model.User{ID: "u-1", Name: "Ann", Track: model.TrackDigitalArt})
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again.Users) != 1 || again.Users[0].Name != "Ann" {
		t.Fatalf("user did not survive round trip: %+v", again.Users)
	}
}

func TestFileStoreSelfHealsCorruptFile(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(st.path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load over corrupt file: %v", err)
	}
	if len(snap.Seats) != 17 {
		t.Fatalf("got %d seats after self-heal, want 17", len(snap.Seats))
	}

	// structurally broken JSON heals too: valid syntax, invalid state
	if err := os.WriteFile(st.path, []byte(`{"seats":null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err = st.Load(ctx)
	if err != nil {
		t.Fatalf("load over invalid snapshot: %v", err)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("healed snapshot still invalid: %v", err)
	}
}

func TestFileStoreClear(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap.Users = append(snap.Users, model.User{ID: "u-1", Name: "Ann", Track: model.TrackVRAR})
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// clearing twice is fine
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}

	snap, err = st.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if len(snap.Users) != 0 {
		t.Fatalf("clear kept users: %+v", snap.Users)
	}
}

func TestFileStoreSurvivesStaleTempFiles(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	// a leftover temp file from an interrupted save must not confuse loads
	stale := filepath.Join(filepath.Dir(st.path), ".snapshot-stale.json")
	if err := os.WriteFile(stale, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load with stale temp present: %v", err)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("snapshot invalid: %v", err)
	}
}

func TestDefaultLayoutTimestampSource(t *testing.T) {
	fixed := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	defer func() { now = orig }()

	st := newFileStore(t)
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, s := range snap.Seats {
		if s.Maintenance != nil && !s.Maintenance.StartedAt.Equal(fixed) {
			t.Fatalf("maintenance stamp = %v, want %v", s.Maintenance.StartedAt, fixed)
		}
	}
}
