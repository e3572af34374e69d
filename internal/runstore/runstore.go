// Package runstore persists completed analysis runs keyed by the snapshot
// fingerprint they were computed from. It is the explicit, invalidatable
// replacement for ad-hoc memoization: a re-run over unchanged input data is
// answered from the store, and any change to the inputs changes the key.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockrisk/internal/engine"
)

// Store is a thread-safe in-memory run cache with JSON file persistence.
type Store struct {
	mu       sync.RWMutex
	runs     map[string]*engine.RunResult // keyed by snapshot fingerprint
	order    []string                     // insertion order, oldest first
	maxRuns  int
	filePath string
}

// persistenceFile is the on-disk layout.
type persistenceFile struct {
	Version string                       `json:"version"`
	SavedAt time.Time                    `json:"saved_at"`
	Order   []string                     `json:"order"`
	Runs    map[string]*engine.RunResult `json:"runs"`
}

// New creates a Store persisting to filePath and retaining at most maxRuns
// completed runs.
func New(filePath string, maxRuns int) *Store {
	if maxRuns < 1 {
		maxRuns = 1
	}
	return &Store{
		runs:     make(map[string]*engine.RunResult),
		maxRuns:  maxRuns,
		filePath: filePath,
	}
}

// Load restores previously persisted runs. A missing file is not an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read run store: %w", err)
	}

	var pf persistenceFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse run store %s: %w", s.filePath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = pf.Runs
	if s.runs == nil {
		s.runs = make(map[string]*engine.RunResult)
	}
	s.order = nil
	for _, fp := range pf.Order {
		if _, ok := s.runs[fp]; ok {
			s.order = append(s.order, fp)
		}
	}

	log.Debug().Int("runs", len(s.runs)).Str("path", s.filePath).Msg("Run store loaded")
	return nil
}

// Get returns the cached run for a snapshot fingerprint, if present.
func (s *Store) Get(fingerprint string) (*engine.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[fingerprint]
	return run, ok
}

// Put stores a completed run and persists the store, evicting the oldest
// runs beyond the retention limit.
func (s *Store) Put(run *engine.RunResult) error {
	if run == nil || run.Fingerprint == "" {
		return fmt.Errorf("run must have a fingerprint")
	}

	s.mu.Lock()
	if _, ok := s.runs[run.Fingerprint]; !ok {
		s.order = append(s.order, run.Fingerprint)
	}
	s.runs[run.Fingerprint] = run

	for len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	s.mu.Unlock()

	return s.persist()
}

// Invalidate removes a cached run. Use it when the inputs behind a
// fingerprint are known to be stale despite hashing equal (e.g. a manual
// correction that must force recomputation).
func (s *Store) Invalidate(fingerprint string) error {
	s.mu.Lock()
	if _, ok := s.runs[fingerprint]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.runs, fingerprint)
	for i, fp := range s.order {
		if fp == fingerprint {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return s.persist()
}

// Len returns the number of cached runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// persist writes the store atomically: temp file then rename, so a crash
// mid-write never corrupts the previous state.
func (s *Store) persist() error {
	s.mu.RLock()
	pf := persistenceFile{
		Version: "1",
		SavedAt: time.Now(),
		Order:   append([]string(nil), s.order...),
		Runs:    make(map[string]*engine.RunResult, len(s.runs)),
	}
	for k, v := range s.runs {
		pf.Runs[k] = v
	}
	s.mu.RUnlock()

	data, err := json.Marshal(pf)
	if err != nil {
		return fmt.Errorf("failed to marshal run store: %w", err)
	}

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create run store directory: %w", err)
		}
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write run store: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace run store: %w", err)
	}
	return nil
}
