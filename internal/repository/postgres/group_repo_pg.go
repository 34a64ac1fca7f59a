package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/repository"
	"github.com/cwrk-planet/relay-service/internal/repository/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupRepoPG struct {
	db *pgxpool.Pool
}

var _ repository.GroupRepository = (*GroupRepoPG)(nil)

func NewGroupRepoPG(db *pgxpool.Pool) *GroupRepoPG {
	return &GroupRepoPG{db: db}
}

func (r *GroupRepoPG) Upsert(ctx context.Context, name string) error {
	if _, err := r.db.Exec(ctx, queries.QueryUpsertGroup, name); err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}
	return nil
}

func (r *GroupRepoPG) Get(ctx context.Context, name string) (*domain.Group, error) {
	row := r.db.QueryRow(ctx, queries.QueryGetGroup, name)

	var g domain.Group
	err := row.Scan(&g.Name, &g.Locked, &g.AllowedUntil, &g.DeviceCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (r *GroupRepoPG) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.Query(ctx, queries.QueryListGroups)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.Name, &g.Locked, &g.AllowedUntil, &g.DeviceCount); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Lock блокирует группу и каскадно все её устройства, в одной транзакции.
func (r *GroupRepoPG) Lock(ctx context.Context, name string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("lock group: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, queries.QueryLockGroup, name)
	if err != nil {
		return fmt.Errorf("lock group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	if _, err := tx.Exec(ctx, queries.QueryBlockGroupDevices, name); err != nil {
		return fmt.Errorf("lock group: block devices: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *GroupRepoPG) Unlock(ctx context.Context, name string, allowedUntil time.Time) error {
	tag, err := r.db.Exec(ctx, queries.QueryUnlockGroup, name, allowedUntil)
	if err != nil {
		return fmt.Errorf("unlock group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (r *GroupRepoPG) Delete(ctx context.Context, name string) error {
	// устройства сохраняют свой group_name после удаления группы
	tag, err := r.db.Exec(ctx, queries.QueryDeleteGroup, name)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}
