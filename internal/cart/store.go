package cart

import (
	"context"
	"sync"
)

// Store persists a ledger between sessions. Load returns an empty ledger
// when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Ledger, error)
	Save(ctx context.Context, l *Ledger) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the encoded ledger in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := New()
	if len(s.data) == 0 {
		return l, nil
	}
	if err := l.UnmarshalJSON(s.data); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *MemoryStore) Save(_ context.Context, l *Ledger) error {
	data, err := l.MarshalJSON()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}
