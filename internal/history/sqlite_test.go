package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/flashmux/internal/infrastructure/config"
	"github.com/nerrad567/flashmux/internal/infrastructure/database"
	"github.com/nerrad567/flashmux/migrations"
)

func openRepo(t *testing.T) (*SQLiteRepository, *database.DB) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB), db
}

func TestRecordAndRecent(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{EventID: "e1", Device: "front", External: false, Path: "/mux-m:1", CreatedAt: base},
		{EventID: "e2", Device: "front", External: true, Provider: "isp", Path: "/mux-m:3", Blocked: 100 * time.Millisecond, CreatedAt: base.Add(time.Second)},
		{EventID: "e3", Device: "rear", Error: "strobe: device not ready", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s) error = %v", e.EventID, err)
		}
	}

	got, err := repo.Recent(ctx, "front", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}
	if got[0].EventID != "e2" || got[1].EventID != "e1" {
		t.Errorf("order = %s, %s; want e2, e1", got[0].EventID, got[1].EventID)
	}

	newest := got[0]
	if !newest.External || newest.Provider != "isp" || newest.Path != "/mux-m:3" {
		t.Errorf("entry = %+v", newest)
	}
	if newest.Blocked != 100*time.Millisecond {
		t.Errorf("Blocked = %v, want 100ms", newest.Blocked)
	}
	if !newest.CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v", newest.CreatedAt)
	}
	if !newest.OK() || newest.ID == 0 {
		t.Errorf("OK()=%v ID=%d", newest.OK(), newest.ID)
	}

	rear, err := repo.Recent(ctx, "rear", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rear) != 1 || rear[0].OK() {
		t.Errorf("rear entries = %+v", rear)
	}
}

func TestRecent_SameTimestampNewestFirst(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	at := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.Record(ctx, Entry{EventID: fmt.Sprint(i), Device: "front", CreatedAt: at}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repo.Recent(ctx, "front", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].EventID != "2" || got[2].EventID != "0" {
		t.Errorf("order = %s,%s,%s; want 2,1,0", got[0].EventID, got[1].EventID, got[2].EventID)
	}
}

func TestRecent_Limits(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < maxLimit+10; i++ {
		e := Entry{EventID: fmt.Sprintf("e%d", i), Device: "front", CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
		if err := repo.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, defaultLimit},
		{-1, defaultLimit},
		{5, 5},
		{maxLimit + 100, maxLimit},
	}
	for _, tt := range tests {
		got, err := repo.Recent(ctx, "front", tt.limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("Recent(limit=%d) returned %d, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestRecord_Validation(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()

	if err := repo.Record(ctx, Entry{EventID: "x"}); !errors.Is(err, ErrDeviceRequired) {
		t.Errorf("Record() without device = %v, want ErrDeviceRequired", err)
	}
	if _, err := repo.Recent(ctx, "", 1); !errors.Is(err, ErrDeviceRequired) {
		t.Errorf("Recent() without device = %v, want ErrDeviceRequired", err)
	}

	if err := repo.Record(ctx, Entry{EventID: "dup", Device: "front"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Record(ctx, Entry{EventID: "dup", Device: "front"}); err == nil {
		t.Error("Record() with duplicate event id = nil")
	}
}

func TestRecord_DefaultsCreatedAt(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	if err := repo.Record(ctx, Entry{EventID: "e", Device: "front"}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Recent(ctx, "front", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want about now", got[0].CreatedAt)
	}
}

func TestPrune(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	now := time.Now()

	for i, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour} {
		e := Entry{EventID: fmt.Sprint(i), Device: "front", CreatedAt: now.Add(-age)}
		if err := repo.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() deleted %d, want 2", n)
	}
	left, _ := repo.Recent(ctx, "front", 10)
	if len(left) != 1 || left[0].EventID != "2" {
		t.Errorf("remaining = %+v", left)
	}

	if _, err := repo.Prune(ctx, 0); !errors.Is(err, ErrInvalidRetention) {
		t.Errorf("Prune(0) = %v, want ErrInvalidRetention", err)
	}
}
