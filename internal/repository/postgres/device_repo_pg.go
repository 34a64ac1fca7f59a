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

type DeviceRepoPG struct {
	db *pgxpool.Pool
}

var _ repository.DeviceRepository = (*DeviceRepoPG)(nil)

func NewDeviceRepoPG(db *pgxpool.Pool) *DeviceRepoPG {
	return &DeviceRepoPG{db: db}
}

func (r *DeviceRepoPG) Create(ctx context.Context, d *domain.Device) error {
	_, err := r.db.Exec(ctx, queries.QueryCreateDevice,
		d.ID, d.Name, d.GroupName, d.AllowedUntil, d.Blocked, d.ActivatedAt, d.LastCheckIn)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (r *DeviceRepoPG) Get(ctx context.Context, id string) (*domain.Device, error) {
	row := r.db.QueryRow(ctx, queries.QueryGetDevice, id)

	var d domain.Device
	err := row.Scan(&d.ID, &d.Name, &d.GroupName, &d.AllowedUntil, &d.Blocked, &d.ActivatedAt, &d.LastCheckIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &d, nil
}

func (r *DeviceRepoPG) List(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.Query(ctx, queries.QueryListDevices)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Device, 0)
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.GroupName, &d.AllowedUntil, &d.Blocked, &d.ActivatedAt, &d.LastCheckIn); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeviceRepoPG) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.exec(ctx, queries.QuerySetDeviceBlocked, id, blocked)
}

func (r *DeviceRepoPG) Unlock(ctx context.Context, id string, allowedUntil time.Time) error {
	return r.exec(ctx, queries.QueryUnlockDevice, id, allowedUntil)
}

func (r *DeviceRepoPG) Rename(ctx context.Context, id string, name string) error {
	return r.exec(ctx, queries.QueryRenameDevice, id, name)
}

func (r *DeviceRepoPG) SetGroup(ctx context.Context, id string, groupName *string) error {
	return r.exec(ctx, queries.QuerySetDeviceGroup, id, groupName)
}

func (r *DeviceRepoPG) TouchCheckIn(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, queries.QueryTouchCheckIn, id, at)
}

func (r *DeviceRepoPG) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, queries.QueryDeleteDevice, id)
}

func (r *DeviceRepoPG) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("device exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}
