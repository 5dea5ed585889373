package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a JSON-file-backed Collection for running without a database
// (local development, single-board deployments). Every mutation rewrites the
// file; collections here hold at most a season of records, so that is cheap.
type File[T Record] struct {
	path string

	mu  sync.Mutex
	mem *Memory[T]
}

// OpenFile loads the collection stored at path, creating parent directories
// as needed. A missing file is an empty collection.
func OpenFile[T Record](path string) (*File[T], error) {
	f := &File[T]{path: path, mem: NewMemory[T]()}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}

	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", path, err)
	}
	_ = f.mem.InsertAll(context.Background(), recs)
	return f, nil
}

func (f *File[T]) Count(ctx context.Context) (int, error) {
	return f.mem.Count(ctx)
}

func (f *File[T]) Exists(ctx context.Context, rec T) (bool, error) {
	return f.mem.Exists(ctx, rec)
}

func (f *File[T]) Insert(ctx context.Context, rec T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.Insert(ctx, rec); err != nil {
		return err
	}
	return f.save(ctx)
}

func (f *File[T]) InsertAll(ctx context.Context, recs []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.InsertAll(ctx, recs); err != nil {
		return err
	}
	return f.save(ctx)
}

func (f *File[T]) DropAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.DropAll(ctx); err != nil {
		return err
	}
	return f.save(ctx)
}

func (f *File[T]) ReplaceAll(ctx context.Context, recs []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.ReplaceAll(ctx, recs); err != nil {
		return err
	}
	return f.save(ctx)
}

func (f *File[T]) ListAll(ctx context.Context) ([]T, error) {
	return f.mem.ListAll(ctx)
}

// save writes via a temp file + rename so a crash mid-write cannot truncate
// the collection.
func (f *File[T]) save(ctx context.Context) error {
	recs, err := f.mem.ListAll(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".store-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}
