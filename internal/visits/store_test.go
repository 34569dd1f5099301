package visits

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", "test-salt")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHashIP(t *testing.T) {
	s := openTestStore(t)
	a := s.HashIP("203.0.113.7")
	if len(a) != 16 {
		t.Errorf("len(hash) = %d, want 16", len(a))
	}
	if a != s.HashIP("203.0.113.7") {
		t.Error("hash is not stable")
	}
	if a == s.HashIP("203.0.113.8") {
		t.Error("different IPs hashed to the same value")
	}
}

func TestRecordAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record(ctx, "10.0.0.1", "curl", "/")
	s.Record(ctx, "10.0.0.1", "curl", "/projects")
	s.Record(ctx, "10.0.0.2", "firefox", "/")

	now = now.Add(-3 * 24 * time.Hour)
	s.Record(ctx, "10.0.0.3", "safari", "/")
	now = now.Add(3 * 24 * time.Hour)

	s.RecordContact(ctx, "success")
	s.RecordContact(ctx, "error")
	s.RecordContact(ctx, "success")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVisitors != 4 {
		t.Errorf("TotalVisitors = %d, want 4", stats.TotalVisitors)
	}
	if stats.UniqueVisitors != 3 {
		t.Errorf("UniqueVisitors = %d, want 3", stats.UniqueVisitors)
	}
	if stats.VisitorsToday != 3 {
		t.Errorf("VisitorsToday = %d, want 3", stats.VisitorsToday)
	}
	if stats.VisitorsThisWeek != 4 {
		t.Errorf("VisitorsThisWeek = %d, want 4", stats.VisitorsThisWeek)
	}
	if stats.ContactOutcomes["success"] != 2 || stats.ContactOutcomes["error"] != 1 {
		t.Errorf("ContactOutcomes = %v", stats.ContactOutcomes)
	}
	if len(stats.RecentVisitors) != 4 || stats.RecentVisitors[0].UserAgent != "firefox" {
		t.Errorf("RecentVisitors = %+v", stats.RecentVisitors)
	}
	for _, v := range stats.RecentVisitors {
		if v.HashedIP == "10.0.0.1" || v.HashedIP == "10.0.0.3" {
			t.Errorf("raw IP stored: %+v", v)
		}
	}
}

func TestCleanup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record(ctx, "10.0.0.1", "old", "/")
	now = now.Add(400 * 24 * time.Hour)
	s.Record(ctx, "10.0.0.1", "new", "/")

	deleted, err := s.Cleanup(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	recent, _ := s.Recent(ctx, 10)
	if len(recent) != 1 || recent[0].UserAgent != "new" {
		t.Errorf("remaining = %+v", recent)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("schema versions = %d, want 2", n)
	}
}
