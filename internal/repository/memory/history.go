package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

// HistoryStore keeps audit entries in insertion order.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.IssueHistory
}

var _ repository.IssueHistoryRepository = (*HistoryStore)(nil)

// NewHistoryStore returns an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make(map[string][]domain.IssueHistory)}
}

func (s *HistoryStore) Create(ctx context.Context, history *domain.IssueHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	history.ID = uuid.NewString()
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.entries[history.IssueID] = append(s.entries[history.IssueID], *history)
	s.mu.Unlock()
	return nil
}

func (s *HistoryStore) ListByIssue(ctx context.Context, issueID string) ([]domain.IssueHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.IssueHistory(nil), s.entries[issueID]...), nil
}
