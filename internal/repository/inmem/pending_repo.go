package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/repository"
)

// PendingRepo — очередь отложенных сообщений в памяти. Для тестов и
// одиночных инсталляций без Postgres; контракт тот же, что у pgx-реализации.
type PendingRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.PendingMessage
}

var _ repository.PendingRepository = (*PendingRepo)(nil)

func NewPendingRepo() *PendingRepo {
	return &PendingRepo{}
}

func (r *PendingRepo) Append(_ context.Context, conversationID, recipient string, message []byte, createdAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	msg := make([]byte, len(message))
	copy(msg, message)
	r.rows = append(r.rows, domain.PendingMessage{
		ID:             r.nextID,
		ConversationID: conversationID,
		Recipient:      recipient,
		Message:        msg,
		CreatedAt:      createdAt,
	})
	return r.nextID, nil
}

func (r *PendingRepo) ListOrdered(_ context.Context, conversationID, recipient string) ([]domain.PendingMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.matchLocked(func(m domain.PendingMessage) bool {
		return m.ConversationID == conversationID && m.Recipient == recipient
	}), nil
}

func (r *PendingRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteLocked([]int64{id})
	return nil
}

func (r *PendingRepo) Take(_ context.Context, recipient, conversationID string) ([]domain.PendingMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.matchLocked(func(m domain.PendingMessage) bool {
		if m.Recipient != recipient {
			return false
		}
		return conversationID == "" || m.ConversationID == conversationID
	})

	ids := make([]int64, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.ID)
	}
	r.deleteLocked(ids)
	return matched, nil
}

func (r *PendingRepo) CountByConversation(_ context.Context, recipient string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, m := range r.rows {
		if m.Recipient == recipient {
			counts[m.ConversationID]++
		}
	}
	return counts, nil
}

// Len — количество строк в очереди (для тестов).
func (r *PendingRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rows)
}

// matchLocked возвращает копии строк под предикат в порядке
// (created_at, id) — контракт порядка доставки.
func (r *PendingRepo) matchLocked(pred func(domain.PendingMessage) bool) []domain.PendingMessage {
	out := make([]domain.PendingMessage, 0)
	for _, m := range r.rows {
		if pred(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *PendingRepo) deleteLocked(ids []int64) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.rows[:0]
	for _, m := range r.rows {
		if _, ok := drop[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	r.rows = kept
}
