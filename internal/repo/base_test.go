package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ctxKey struct{}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBScopesContext(t *testing.T) {
	base := NewBase(openMemory(t))
	ctx := context.WithValue(context.Background(), ctxKey{}, "owner-1")

	scoped := base.DB(ctx)
	if scoped.Statement.Context != ctx {
		t.Fatalf("expected statement context to be the caller's")
	}
}

func TestBaseDBNilContextReturnsHandle(t *testing.T) {
	conn := openMemory(t)
	base := NewBase(conn)

	//nolint:staticcheck
	if got := base.DB(nil); got != conn {
		t.Fatalf("expected bare connection for nil context")
	}
}
