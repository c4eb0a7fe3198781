package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SnapshotFile is the name of the unfiltered snapshot inside a data directory.
const SnapshotFile = "entries.json"

// Snapshot maps Key(lang, id) to the entry last seen under that key.
type Snapshot map[string]Entry

// SnapshotFileFor returns the snapshot file name for a run filtered to lang, or the
// unfiltered name when lang is empty.
func SnapshotFileFor(lang string) string {
	if lang == "" {
		return SnapshotFile
	}
	return fmt.Sprintf("entries_%s.json", lang)
}

// LoadSnapshot reads a snapshot file. A missing file yields an empty snapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	s := Snapshot{}
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return s, nil
}

// Save writes the snapshot as indented JSON. The file is replaced atomically.
func (s Snapshot) Save(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Merge copies every entry of other into s, overwriting existing keys.
func (s Snapshot) Merge(other Snapshot) {
	for k, e := range other {
		s[k] = e
	}
}

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SnapshotStore serves listings straight from a snapshot file when no database is configured.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) List(ctx context.Context, q ListQuery) ([]Record, int, error) {
	snap, err := LoadSnapshot(s.path)
	if err != nil {
		return nil, 0, err
	}

	var all []Record
	for _, key := range snap.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		e := snap[key]
		lang, _, _ := cutKey(key)
		if q.Language != "" && lang != q.Language {
			continue
		}
		if q.EntryType != "" && e.EntryType != q.EntryType {
			continue
		}
		all = append(all, Record{Key: key, Language: lang, Entry: e})
	}

	total := len(all)
	if q.Offset >= total {
		return []Record{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return all[q.Offset:end], total, nil
}

func (s *SnapshotStore) GetByKey(ctx context.Context, key string) (Record, error) {
	snap, err := LoadSnapshot(s.path)
	if err != nil {
		return Record{}, err
	}
	e, ok := snap[key]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	lang, _, _ := cutKey(key)
	return Record{Key: key, Language: lang, Entry: e}, nil
}
