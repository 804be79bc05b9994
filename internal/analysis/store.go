package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

const recordExt = ".json.zst"

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// ValidJobID reports whether id is safe to use as a file name.
func ValidJobID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.ContainsRune(id, 0)
}

// Store keeps one zstd-compressed JSON record per job in a directory.
type Store struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewStore opens (and creates) a record directory.
func NewStore(logger zerolog.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Path returns the record file for a job.
func (s *Store) Path(jobID string) string {
	return filepath.Join(s.dir, jobID+recordExt)
}

// Load reads a job's record. A job with no record yet yields an empty one.
func (s *Store) Load(jobID string) (Record, error) {
	if !ValidJobID(jobID) {
		return nil, fmt.Errorf("invalid job id %q", jobID)
	}

	f, err := os.Open(s.Path(jobID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, nil
		}
		return nil, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var r Record
	if err := json.NewDecoder(decoder).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", jobID, err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// Save writes a job's record, replacing the previous file atomically.
func (s *Store) Save(jobID string, r Record) error {
	if !ValidJobID(jobID) {
		return fmt.Errorf("invalid job id %q", jobID)
	}

	tmp, err := os.CreateTemp(s.dir, jobID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(encoder)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		encoder.Close()
		tmp.Close()
		return fmt.Errorf("encode record: %w", err)
	}
	if err := encoder.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(jobID)); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}

	s.logger.Debug().Str("job_id", jobID).Str("path", s.Path(jobID)).Msg("record saved")
	return nil
}

// Update loads a record, applies fn and saves the result. Updates through
// the same Store are serialized.
func (s *Store) Update(jobID string, fn func(Record) (Record, error)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Load(jobID)
	if err != nil {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if err := s.Save(jobID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// List returns the IDs of all stored jobs, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}
