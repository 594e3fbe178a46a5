package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"heritagecore/internal/infra/persistence/postgres/testutil"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreAppliesStateTableDDL(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Statements() {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got %v", conn.Statements())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	if _, ok, err := store.Get(ctx, "default/adara_auth_user"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := store.Put(ctx, "default/adara_auth_user", []byte(`{"id":"a"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, "default/adara_auth_user")
	if err != nil || !ok || string(got) != `{"id":"a"}` {
		t.Fatalf("unexpected get result %q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := store.Get(ctx, "other/adara_auth_user"); ok {
		t.Fatalf("expected keys to be isolated")
	}
	if err := store.Delete(ctx, "default/adara_auth_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(conn.State) != 0 {
		t.Fatalf("expected state emptied, got %v", conn.State)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://example"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreOpenFailure(t *testing.T) {
	boom := errors.New("boom")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, boom })
	defer restore()
	if _, err := NewStore(context.Background(), ""); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestStoreSurfacesDriverErrors(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	conn.FailExec = true
	if err := store.Put(ctx, "k", []byte(`{}`)); err == nil {
		t.Fatalf("expected put error")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete error")
	}
	conn.FailQuery = true
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatalf("expected get error")
	}
}
