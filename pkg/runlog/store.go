// Package runlog keeps a local history of job submissions.
//
// The backend holds the authoritative run state; the run log only
// answers "what did I submit from this machine, and how did it end"
// without another backend round trip.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists and loads Records from an on-disk directory.
//
// Directory layout:
//
//	<root>/<id>/record.json
//
// Root is expected to be under the app data dir.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: strings.TrimSpace(root)}
}

func (s *Store) RootDir() string {
	return s.root
}

func (s *Store) recordDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.recordDir(id), "record.json")
}

func (s *Store) ensureRoot() error {
	if strings.TrimSpace(s.root) == "" {
		return fmt.Errorf("run log root dir is empty")
	}
	return os.MkdirAll(s.root, 0755)
}

// NewRecord creates an in-memory record for a fresh submission.
// The caller fills in job/run fields and calls Write.
func NewRecord(jobName string) *Record {
	return &Record{
		ID:          uuid.New().String(),
		JobName:     strings.TrimSpace(jobName),
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
}

// Write persists the record atomically (write temp, rename).
func (s *Store) Write(record *Record) error {
	if record == nil {
		return fmt.Errorf("run record is nil")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}

	dir := s.recordDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(dir, "record.json.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp record file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record file: %w", err)
	}

	if err := os.Rename(tmpName, s.recordPath(id)); err != nil {
		return fmt.Errorf("rename record file: %w", err)
	}
	return nil
}

// Get loads one record by local submission ID.
func (s *Store) Get(id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("record id is required")
	}
	b, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, fmt.Errorf("record.json is empty")
	}

	var record Record
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		return nil, fmt.Errorf("parse record.json: %w", err)
	}
	return &record, nil
}

// List returns all records, newest first. Unreadable entries are
// skipped so one corrupt record does not hide the history.
func (s *Store) List() ([]Record, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run log root: %w", err)
	}

	out := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		r, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})

	return out, nil
}
