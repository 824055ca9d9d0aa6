// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers creation, key/value round trips, set-if-absent, and reopen durability

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("parent directory was not created")
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SetIfAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.SetIfAbsent(ctx, "client_id", "winner")
	if err != nil {
		t.Fatalf("SetIfAbsent() error = %v", err)
	}
	if got != "winner" {
		t.Errorf("SetIfAbsent() = %q, want %q", got, "winner")
	}

	got, err = s.SetIfAbsent(ctx, "client_id", "loser")
	if err != nil {
		t.Fatalf("SetIfAbsent() error = %v", err)
	}
	if got != "winner" {
		t.Errorf("second SetIfAbsent() = %q, want existing %q", got, "winner")
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if _, err := s1.SetIfAbsent(ctx, "client_id", "durable"); err != nil {
		t.Fatalf("SetIfAbsent() error = %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore (reopen) failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "client_id")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "durable" {
		t.Errorf("Get() = %q, want %q", got, "durable")
	}
}

func TestMockStore_SetIfAbsent(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	got, _ := m.SetIfAbsent(ctx, "k", "a")
	if got != "a" {
		t.Errorf("SetIfAbsent() = %q, want %q", got, "a")
	}
	got, _ = m.SetIfAbsent(ctx, "k", "b")
	if got != "a" {
		t.Errorf("SetIfAbsent() = %q, want %q", got, "a")
	}
	if _, err := m.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
