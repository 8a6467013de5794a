package store

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/coursecast/coursecast/helpers"
)

// recordedVideo mirrors the RecordedVideo document the reference system
// persists per finished recording: a filename, its owning division, and a
// creation timestamp.
type recordedVideo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	DivisionID string    `json:"division_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileStore appends one JSON line per recorded video to a file, a
// dependency-free stand-in for a document database.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore ensures path's directory exists; path itself is opened for
// appending (and created if needed) on each RecordVideo call.
func NewFileStore(path string) (*FileStore, error) {
	if err := helpers.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) RecordVideo(filename, divisionID string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := helpers.OpenAppend(s.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	rec := recordedVideo{
		ID:         helpers.NewID(),
		Filename:   filename,
		DivisionID: divisionID,
		CreatedAt:  at,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return "", err
	}
	return rec.ID, nil
}
