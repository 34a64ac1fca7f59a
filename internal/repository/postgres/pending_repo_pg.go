package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/repository"
	"github.com/cwrk-planet/relay-service/internal/repository/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

type PendingRepoPG struct {
	db *pgxpool.Pool
}

var _ repository.PendingRepository = (*PendingRepoPG)(nil)

func NewPendingRepoPG(db *pgxpool.Pool) *PendingRepoPG {
	return &PendingRepoPG{db: db}
}

func (r *PendingRepoPG) Append(ctx context.Context, conversationID, recipient string, message []byte, createdAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, queries.QueryAppendPending,
		conversationID, recipient, message, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append pending: %w", err)
	}
	return id, nil
}

func (r *PendingRepoPG) ListOrdered(ctx context.Context, conversationID, recipient string) ([]domain.PendingMessage, error) {
	rows, err := r.db.Query(ctx, queries.QueryListPendingOrdered, conversationID, recipient)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	return scanPending(rows)
}

func (r *PendingRepoPG) DeleteByID(ctx context.Context, id int64) error {
	// удаление уже удалённого id — no-op
	if _, err := r.db.Exec(ctx, queries.QueryDeletePendingByID, id); err != nil {
		return fmt.Errorf("delete pending %d: %w", id, err)
	}
	return nil
}

// Take выбирает и удаляет строки в одной транзакции. Удаляются только
// id из снапшота выборки: конкурентный Append тех же ключей не теряется.
func (r *PendingRepoPG) Take(ctx context.Context, recipient, conversationID string) ([]domain.PendingMessage, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("take pending: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rows pgx.Rows
	if conversationID == "" {
		rows, err = tx.Query(ctx, queries.QueryListPendingByRecipient, recipient)
	} else {
		rows, err = tx.Query(ctx, queries.QueryListPendingOrdered, conversationID, recipient)
	}
	if err != nil {
		return nil, fmt.Errorf("take pending: select: %w", err)
	}
	msgs, err := scanPending(rows)
	if err != nil {
		return nil, err
	}

	if len(msgs) > 0 {
		ids := lo.Map(msgs, func(m domain.PendingMessage, _ int) int64 { return m.ID })
		if _, err := tx.Exec(ctx, queries.QueryDeletePendingByIDs, ids); err != nil {
			return nil, fmt.Errorf("take pending: delete: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("take pending: commit: %w", err)
	}
	return msgs, nil
}

func (r *PendingRepoPG) CountByConversation(ctx context.Context, recipient string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, queries.QueryCountPending, recipient)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var conv string
		var n int
		if err := rows.Scan(&conv, &n); err != nil {
			return nil, fmt.Errorf("count pending: scan: %w", err)
		}
		counts[conv] = n
	}
	return counts, rows.Err()
}

func scanPending(rows pgx.Rows) ([]domain.PendingMessage, error) {
	defer rows.Close()

	out := make([]domain.PendingMessage, 0)
	for rows.Next() {
		var m domain.PendingMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Recipient, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
