package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/torosent/docloader/internal/store"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := Connect(context.Background(), Options{Addr: srv.Addr()})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestNamespaceOperations(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()
	target := client.Namespace("travel.inventory.people")

	if target.Name() != "travel.inventory.people" {
		t.Fatalf("Name() = %s", target.Name())
	}
	if err := target.Insert(ctx, "DOC-1", map[string]string{"name": "pippin"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got, err := srv.Get("travel.inventory.people:DOC-1")
	if err != nil {
		t.Fatalf("miniredis Get() error = %v", err)
	}
	if got != `{"name":"pippin"}` {
		t.Fatalf("stored value = %s", got)
	}
	if err := target.Insert(ctx, "DOC-1", map[string]string{}); !errors.Is(err, store.ErrDocumentExists) {
		t.Fatalf("duplicate Insert() error = %v, want exists", err)
	}
	if err := target.Upsert(ctx, "DOC-1", map[string]string{"name": "merry"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := target.Get(ctx, "DOC-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := target.Remove(ctx, "DOC-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := target.Get(ctx, "DOC-1"); !errors.Is(err, store.ErrDocumentNotFound) {
		t.Fatalf("Get() after remove error = %v, want not found", err)
	}
	if err := target.Remove(ctx, "DOC-1"); !errors.Is(err, store.ErrDocumentNotFound) {
		t.Fatalf("Remove() missing error = %v, want not found", err)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	a := client.Namespace("a")
	b := client.Namespace("b")
	if err := a.Insert(ctx, "k", 1); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := b.Insert(ctx, "k", 1); err != nil {
		t.Fatalf("Insert() into second namespace error = %v", err)
	}
}

func TestClassifyAuthAndTemporary(t *testing.T) {
	if err := classify(errors.New("NOAUTH Authentication required.")); !errors.Is(err, store.ErrAuthentication) {
		t.Errorf("classify(NOAUTH) = %v", err)
	}
	if err := classify(errors.New("LOADING Redis is loading")); !errors.Is(err, store.ErrTemporaryFailure) {
		t.Errorf("classify(LOADING) = %v", err)
	}
	if err := classify(context.DeadlineExceeded); !errors.Is(err, store.ErrTimeout) {
		t.Errorf("classify(deadline) = %v", err)
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestConnectRequiresPassword(t *testing.T) {
	srv := miniredis.RunT(t)
	srv.RequireAuth("secret")
	if _, err := Connect(context.Background(), Options{Addr: srv.Addr()}); err == nil {
		t.Fatal("expected authentication error")
	}
	client, err := Connect(context.Background(), Options{Addr: srv.Addr(), Password: "secret"})
	if err != nil {
		t.Fatalf("Connect() with password error = %v", err)
	}
	_ = client.Close()
}
