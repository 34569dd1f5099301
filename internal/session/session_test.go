package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("NewID returned the same id twice")
	}
	if !ValidID(a) {
		t.Errorf("ValidID(%q) = false", a)
	}
	if ValidID("not-a-session") {
		t.Error("ValidID accepted garbage")
	}
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	if _, err := m.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}
	if err := m.Set(ctx, "x", []byte("state")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "x")
	if err != nil || string(got) != "state" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := m.Delete(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete err = %v", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	m.Set(ctx, "a", []byte("1"))
	m.Set(ctx, "b", []byte("2"))

	now = now.Add(30 * time.Second)
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after expiry err = %v", err)
	}
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
}
