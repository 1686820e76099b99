// Package profile owns the candidate profile.
//
// Provider and relay selection can change between runs, so core operations
// must never cache the profile: Get returns the current value at call time.
// The profile is persisted to a JSON file; write failures degrade to a
// logged warning (the in-memory value stays authoritative).
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/model"
)

// Store holds the current profile behind a mutex.
type Store struct {
	mu      sync.RWMutex
	path    string
	current model.CandidateProfile
	logger  *zap.SugaredLogger
}

// Load reads the profile file at path. A missing file is not an error: the
// store starts with defaults and creates the file on the first Set.
func Load(path string, logger *zap.SugaredLogger) (*Store, error) {
	s := &Store{path: path, current: Defaults(), logger: logger}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infow("profile file not found, starting with defaults", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}
	return s, nil
}

// Defaults returns an empty profile with sane preference values.
func Defaults() model.CandidateProfile {
	return model.CandidateProfile{
		Preferences: model.Preferences{
			SalaryMin:  0,
			Currency:   "LKR",
			WorkMode:   model.WorkModeRemote,
			AIProvider: model.ProviderGemini,
		},
	}
}

// Get returns the current profile value.
func (s *Store) Get() model.CandidateProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the profile and rewrites the backing file. Persistence
// failure is non-fatal and logged as a data-loss warning.
func (s *Store) Set(p model.CandidateProfile) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		s.logger.Warnw("profile not persisted: marshal failed", "err", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Warnw("profile not persisted: changes will be lost on restart",
			"path", s.path, "err", err)
	}
}
