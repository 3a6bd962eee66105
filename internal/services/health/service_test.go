package health

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"jobtracker/internal/shared/storage/db"
)

func TestStatusMemory(t *testing.T) {
	got := NewService(nil).Status()
	if !got.OK || got.Storage != "memory" {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestStatusTracksCache(t *testing.T) {
	cache := db.NewCache("postgres://127.0.0.1:1/jobs", db.Options{})
	if got := NewService(cache).Status(); got.Storage != "disconnected" {
		t.Fatalf("expected disconnected, got %+v", got)
	}

	sqlDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	if got := NewService(db.CacheOf(sqlDB, db.Options{})).Status(); got.Storage != "connected" {
		t.Fatalf("expected connected, got %+v", got)
	}
}
