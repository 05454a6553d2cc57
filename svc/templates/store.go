package templates

import (
	"context"
	"slices"
	"sync"
)

// Store persists snapshots and tracks which snapshot is current for each
// stable template ID.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	GetSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error)
	CurrentSnapshotID(ctx context.Context, stableID string) (string, error)
	SetCurrent(ctx context.Context, stableID, snapshotID string) error
	ListSnapshots(ctx context.Context, stableID string) ([]*Snapshot, error)
}

// MemoryStore is an in-memory Store for tests and single-node deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	current   map[string]string
	history   map[string][]string // stableID -> snapshot IDs in publish order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*Snapshot),
		current:   make(map[string]string),
		history:   make(map[string][]string),
	}
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snap.SnapshotID]; !exists {
		s.history[snap.StableID] = append(s.history[snap.StableID], snap.SnapshotID)
	}
	cp := *snap
	cp.SubjectLines = slices.Clone(snap.SubjectLines)
	cp.SafetyFlags = slices.Clone(snap.SafetyFlags)
	s.snapshots[snap.SnapshotID] = &cp
	return nil
}

func (s *MemoryStore) GetSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	cp := *snap
	cp.SubjectLines = slices.Clone(snap.SubjectLines)
	cp.SafetyFlags = slices.Clone(snap.SafetyFlags)
	return &cp, nil
}

func (s *MemoryStore) CurrentSnapshotID(ctx context.Context, stableID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.current[stableID]
	if !ok {
		return "", ErrTemplateNotFound
	}
	return id, nil
}

func (s *MemoryStore) SetCurrent(ctx context.Context, stableID, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[snapshotID]; !ok {
		return ErrSnapshotNotFound
	}
	s.current[stableID] = snapshotID
	return nil
}

func (s *MemoryStore) ListSnapshots(ctx context.Context, stableID string) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.history[stableID]
	out := make([]*Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := s.snapshots[id]; ok {
			cp := *snap
			cp.SubjectLines = slices.Clone(snap.SubjectLines)
			cp.SafetyFlags = slices.Clone(snap.SafetyFlags)
			out = append(out, &cp)
		}
	}
	return out, nil
}
