// Package fs implements the blob store on the local filesystem. Keys map to
// relative file paths under the root; a sidecar file (key + ".meta") keeps
// the content type and user metadata.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"panicconf/internal/blob/core"
)

var _ core.Store = (*Store)(nil)

// Store is a filesystem-backed blob store.
type Store struct {
	root string
}

// New returns a store rooted at path, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./archives"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

const metaSuffix = ".meta"

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// sanitizeKey rejects traversal and absolute keys so no key escapes root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(clean, "/../") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *Store) pathFor(key string) (string, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes the blob and its metadata sidecar, overwriting previous content.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return core.Info{}, fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return core.Info{}, fmt.Errorf("create blob: %w", err)
	}
	_, err = io.Copy(f, r)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		_ = os.Remove(path)
		return core.Info{}, fmt.Errorf("write blob: %w", err)
	}
	if opts.ContentType != "" || len(opts.Metadata) > 0 {
		data, err := json.Marshal(sidecar{ContentType: opts.ContentType, Metadata: opts.Metadata})
		if err != nil {
			return core.Info{}, err
		}
		if err := os.WriteFile(path+metaSuffix, data, 0o640); err != nil {
			return core.Info{}, fmt.Errorf("write sidecar: %w", err)
		}
	}
	return s.headPath(key, path)
}

func (s *Store) headPath(key, path string) (core.Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return core.Info{}, fmt.Errorf("blob %s not found", key)
	}
	info := core.Info{
		Key:          key,
		Size:         stat.Size(),
		LastModified: stat.ModTime().UTC(),
	}
	if data, err := os.ReadFile(path + metaSuffix); err == nil {
		var sc sidecar
		if err := json.Unmarshal(data, &sc); err == nil {
			info.ContentType = sc.ContentType
			info.Metadata = sc.Metadata
		}
	}
	return info, nil
}

// Get opens the blob for reading.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := s.headPath(key, path)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("open blob: %w", err)
	}
	return info, f, nil
}

// Head returns the blob metadata.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	return s.headPath(key, path)
}

// Delete removes the blob and its sidecar, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete blob: %w", err)
	}
	_ = os.Remove(path + metaSuffix)
	return true, nil
}

// List walks the root and returns metadata for every blob under the prefix,
// sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.headPath(key, path)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
