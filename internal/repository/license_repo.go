package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

type DeviceRepository interface {
	Create(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, id string) (*domain.Device, error)
	// Все устройства, свежие активации первыми
	List(ctx context.Context) ([]domain.Device, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	// Снимает блокировку и продлевает лицензию до allowedUntil
	Unlock(ctx context.Context, id string, allowedUntil time.Time) error
	Rename(ctx context.Context, id string, name string) error
	SetGroup(ctx context.Context, id string, groupName *string) error
	TouchCheckIn(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type GroupRepository interface {
	// Создаёт группу, если её ещё нет (заблокированной)
	Upsert(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*domain.Group, error)
	// Группы вместе с количеством устройств в каждой
	List(ctx context.Context) ([]domain.Group, error)
	// Блокирует группу и все её устройства
	Lock(ctx context.Context, name string) error
	// Разблокирует группу до allowedUntil
	Unlock(ctx context.Context, name string, allowedUntil time.Time) error
	Delete(ctx context.Context, name string) error
}
