package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/Lemmmy/SCHardwareSurvey/internal/model"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// MemoryStore keeps submissions in process memory with the same token
// uniqueness rule as the surveys table. It backs tests.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[uuid.UUID]model.Submission
	order   []uuid.UUID
	inserts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byToken: make(map[uuid.UUID]model.Submission)}
}

func (m *MemoryStore) Insert(_ context.Context, s *model.Submission) error {
	// Round-trip through JSON so the stored copy matches what the database
	// would hand back.
	payload, err := json.Marshal(s.Stats)
	if err != nil {
		return err
	}
	rec, err := stats.ParseRecord(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if _, ok := m.byToken[s.Token]; ok {
		return ErrDuplicateToken
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	stored := *s
	stored.Stats = rec
	m.byToken[s.Token] = stored
	m.order = append(m.order, s.Token)
	return nil
}

func (m *MemoryStore) ListStats(ctx context.Context) ([]stats.Record, error) {
	list, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]stats.Record, 0, len(list))
	for _, s := range list {
		out = append(out, s.Stats)
	}
	return out, nil
}

func (m *MemoryStore) List(context.Context) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Submission, 0, len(m.order))
	for _, tok := range m.order {
		out = append(out, m.byToken[tok])
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Inserts returns how many insert attempts reached the store.
func (m *MemoryStore) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

// Get returns the submission stored under token.
func (m *MemoryStore) Get(token uuid.UUID) (model.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byToken[token]
	return s, ok
}
