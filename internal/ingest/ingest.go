package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"dblsync/internal/catalog"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// DefaultSkipLanguages are never downloaded unless the caller overrides the list.
var DefaultSkipLanguages = []string{"en", "eng"}

// Options configures one sync run against a data directory.
type Options struct {
	TargetDir string `validate:"required"`
	// Language restricts downloads to one effective language code and names the
	// snapshot file after it.
	Language      string   `validate:"omitempty,langtag"`
	SkipLanguages []string `validate:"dive,langtag"`
	// NoArchives refreshes the snapshot without downloading anything.
	NoArchives bool
	// MapFile is an optional JSON language remapping table, see LanguageMap.
	MapFile     string
	Concurrency int `validate:"gte=0,lte=64"`
	// JobRetries is how often a job is retried after a connection failure.
	JobRetries int `validate:"gte=0,lte=10"`
}

// Run records the outcome of one sync.
type Run struct {
	ID                string     `json:"id"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	Status            string     `json:"status"` // RUNNING, COMPLETED, FAILED
	Language          string     `json:"language,omitempty"`
	SnapshotPath      string     `json:"snapshot_path,omitempty"`
	EntriesSeen       int        `json:"entries_seen"`
	EntriesSuppressed int        `json:"entries_suppressed"`
	JobsPlanned       int        `json:"jobs_planned"`
	Downloaded        int        `json:"downloaded"`
	Skipped           int        `json:"skipped"`
	Unavailable       int        `json:"unavailable"`
	Failed            int        `json:"failed"`
	Error             string     `json:"error,omitempty"`
}

// Missing is the number of planned archives that are still not on disk.
func (r *Run) Missing() int {
	return r.Unavailable + r.Failed
}

// LanguageMap overrides the language code an entry is filed under. PTX is keyed by
// Paratext project name and wins over Lang, which is keyed by the remote language code.
// Mapping to "" drops the entry from the run entirely.
type LanguageMap struct {
	PTX  map[string]string `json:"PTX"`
	Lang map[string]string `json:"lang"`
}

// LoadLanguageMap reads a mapping file. An empty path yields the identity mapping.
func LoadLanguageMap(path string) (LanguageMap, error) {
	if path == "" {
		return LanguageMap{}, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LanguageMap{}, fmt.Errorf("language map %s does not exist", path)
	}
	if err != nil {
		return LanguageMap{}, fmt.Errorf("read language map: %w", err)
	}

	var m LanguageMap
	if err := json.Unmarshal(b, &m); err != nil {
		return LanguageMap{}, fmt.Errorf("parse language map %s: %w", path, err)
	}
	return m, nil
}

// Resolve returns the effective language code for e.
func (m LanguageMap) Resolve(e catalog.Entry) string {
	if e.ParatextName != "" {
		if v, ok := m.PTX[e.ParatextName]; ok {
			return v
		}
	}
	if v, ok := m.Lang[e.LanguageCode]; ok {
		return v
	}
	return e.LanguageCode
}
