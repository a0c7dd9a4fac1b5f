// Package archive persists configuration snapshots as timestamped JSON
// objects in a blob store and restores them on demand.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"panicconf/internal/blob"
	"panicconf/pkg/domain"
)

// Prefix under which every snapshot archive lives.
const Prefix = "snapshots/"

const contentType = "application/json"

// Entry describes one archived snapshot.
type Entry struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size_bytes"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Archiver writes and reads snapshot archives through a blob store.
type Archiver struct {
	store  blob.Store
	logger *zap.Logger
	nowFn  func() time.Time
}

// New constructs an archiver over the given blob store.
func New(store blob.Store, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		store:  store,
		logger: logger,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// keyFor builds a sortable timestamped key. Nanosecond precision keeps keys
// unique when archives land in the same second.
func (a *Archiver) keyFor(now time.Time) string {
	return Prefix + now.UTC().Format("20060102T150405.000000000Z") + ".json"
}

// Archive stores the snapshot and returns the resulting entry.
func (a *Archiver) Archive(ctx context.Context, snapshot domain.Snapshot) (Entry, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return Entry{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := a.keyFor(a.nowFn())
	info, err := a.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return Entry{}, fmt.Errorf("store archive: %w", err)
	}
	a.logger.Info("snapshot archived",
		zap.String("key", info.Key),
		zap.Int64("size_bytes", info.Size))
	return Entry{Key: info.Key, Size: info.Size, ArchivedAt: info.LastModified}, nil
}

// List returns every archived snapshot, newest last (keys sort by time).
func (a *Archiver) List(ctx context.Context) ([]Entry, error) {
	infos, err := a.store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{Key: info.Key, Size: info.Size, ArchivedAt: info.LastModified})
	}
	return entries, nil
}

// Restore loads an archived snapshot by key.
func (a *Archiver) Restore(ctx context.Context, key string) (domain.Snapshot, error) {
	if !strings.HasPrefix(key, Prefix) {
		return domain.Snapshot{}, fmt.Errorf("key %s is not a snapshot archive", key)
	}
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch archive: %w", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read archive: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode archive: %w", err)
	}
	return snapshot, nil
}

// Delete removes an archived snapshot, reporting whether it existed.
func (a *Archiver) Delete(ctx context.Context, key string) (bool, error) {
	if !strings.HasPrefix(key, Prefix) {
		return false, fmt.Errorf("key %s is not a snapshot archive", key)
	}
	return a.store.Delete(ctx, key)
}
