package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"panicconf/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "snapshots/a.json", strings.NewReader(`{"chains":{}}`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size == 0 || info.ContentType != "application/json" {
		t.Fatalf("info wrong: %+v", info)
	}

	got, rc, err := store.Get(ctx, "snapshots/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"chains":{}}` {
		t.Fatalf("content mismatch: %s", data)
	}
	if got.Key != "snapshots/a.json" {
		t.Fatalf("key mismatch: %s", got.Key)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "two" {
		t.Fatalf("overwrite lost: %s", data)
	}
}

func TestListFiltersByPrefixSorted(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"snapshots/b", "snapshots/a", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "snapshots/a" || infos[1].Key != "snapshots/b" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	existed, err := store.Delete(ctx, "k")
	if err != nil || !existed {
		t.Fatalf("first delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "k")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
}
