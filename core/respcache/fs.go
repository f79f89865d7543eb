package respcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FSStore is the filesystem backend. Documents live under
// <root>/runs/<runID>/<kind>/<id>.json; reads fall through to the most recent
// prior run partition and write back on a hit.
type FSStore struct {
	root  string
	runID string
}

// NewFSStore creates the current run's partition and prunes old partitions down
// to maxRuns.
func NewFSStore(root, runID string, maxRuns int) (*FSStore, error) {
	runDir := filepath.Join(root, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	s := &FSStore{root: root, runID: runID}
	if maxRuns > 0 {
		s.prune(maxRuns)
	}
	return s, nil
}

func (s *FSStore) path(runID string, kind Kind, id string) string {
	return filepath.Join(s.root, "runs", runID, string(kind), id+".json")
}

// priorRuns returns other run ids, most recent first (by directory mtime).
func (s *FSStore) priorRuns() []string {
	entries, err := os.ReadDir(filepath.Join(s.root, "runs"))
	if err != nil {
		return nil
	}
	type runDir struct {
		name  string
		mtime int64
	}
	var runs []runDir
	for _, e := range entries {
		if !e.IsDir() || e.Name() == s.runID {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, runDir{name: e.Name(), mtime: info.ModTime().UnixNano()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].mtime > runs[j].mtime })
	names := make([]string, 0, len(runs))
	for _, r := range runs {
		names = append(names, r.name)
	}
	return names
}

func (s *FSStore) prune(maxRuns int) {
	runs := s.priorRuns()
	// The current run counts toward the budget.
	for i := maxRuns - 1; i < len(runs); i++ {
		if i < 0 {
			continue
		}
		_ = os.RemoveAll(filepath.Join(s.root, "runs", runs[i]))
	}
}

func (s *FSStore) Get(ctx context.Context, kind Kind, id string, out any) (bool, error) {
	// Current run first.
	data, err := os.ReadFile(s.path(s.runID, kind, id))
	if err == nil {
		return true, json.Unmarshal(data, out)
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	// Fall through to prior runs, writing back on a hit.
	for _, run := range s.priorRuns() {
		data, err := os.ReadFile(s.path(run, kind, id))
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			// Corrupt prior-run entry: skip it, keep falling through.
			continue
		}
		if err := s.writeRaw(kind, id, data); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

func (s *FSStore) Put(ctx context.Context, kind Kind, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.writeRaw(kind, id, data)
}

func (s *FSStore) writeRaw(kind Kind, id string, data []byte) error {
	dir := filepath.Join(s.root, "runs", s.runID, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache partition: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, kind Kind, id string) error {
	err := os.Remove(s.path(s.runID, kind, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
