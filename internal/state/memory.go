package state

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store with the same revision-guard
// semantics as the DynamoDB implementation. Used in tests and for local
// development without AWS.
type MemoryStore struct {
	mu    sync.Mutex
	jobs  map[string]*JobRecord
	users map[string]*UserRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[string]*JobRecord),
		users: make(map[string]*UserRecord),
	}
}

func (s *MemoryStore) PutJob(ctx context.Context, record *JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[record.ID]; ok {
		return ErrAlreadyExists
	}
	cp := *record
	s.jobs[record.ID] = &cp
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, record *JobRecord, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[record.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Revision != expectedRevision {
		return ErrRevisionConflict
	}
	cp := *record
	s.jobs[record.ID] = &cp
	return nil
}

func (s *MemoryStore) ListJobsByStatus(ctx context.Context, status string, limit int) ([]*JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*JobRecord
	for _, record := range s.jobs {
		if record.Status == status {
			cp := *record
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) PutUser(ctx context.Context, record *UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[record.ID]; ok {
		return ErrAlreadyExists
	}
	cp := *record
	s.users[record.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
