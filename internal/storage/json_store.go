package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/julianstephens/daylit-planner/internal/models"
)

// archive is the on-disk layout of a JSONStore
type archive struct {
	Version int                   `json:"version"`
	Runs    map[string]models.Run `json:"runs"`
}

// JSONStore keeps the run archive in a single JSON file
type JSONStore struct {
	path  string
	mu    sync.Mutex
	store *archive
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.load()
	}

	s.store = &archive{Version: 1, Runs: make(map[string]models.Run)}
	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &archive{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if s.store.Runs == nil {
		s.store.Runs = make(map[string]models.Run)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) SaveRun(_ context.Context, run models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if _, exists := s.store.Runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.store.Runs[run.ID] = run
	return s.save()
}

func (s *JSONStore) GetRun(_ context.Context, id string) (models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return models.Run{}, fmt.Errorf("storage not loaded")
	}
	run, ok := s.store.Runs[id]
	if !ok {
		return models.Run{}, ErrNotFound
	}
	return run, nil
}

func (s *JSONStore) ListRuns(_ context.Context, limit int) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	runs := make([]models.Run, 0, len(s.store.Runs))
	for _, run := range s.store.Runs {
		run.Input = nil
		run.Result = nil
		runs = append(runs, run)
	}
	SortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *JSONStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if _, ok := s.store.Runs[id]; !ok {
		return ErrNotFound
	}
	delete(s.store.Runs, id)
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// SortNewestFirst orders runs by creation time descending, then by ID
func SortNewestFirst(runs []models.Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
