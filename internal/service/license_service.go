package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/repository"

	"github.com/google/uuid"
)

const defaultUnlockDays = 30

// LicenseService — администрирование устройств и групп плюс
// runtime-проверка лицензии (check-now) с клиентских устройств.
type LicenseService struct {
	devices repository.DeviceRepository
	groups  repository.GroupRepository

	now func() time.Time
}

func NewLicenseService(devices repository.DeviceRepository, groups repository.GroupRepository) *LicenseService {
	return &LicenseService{
		devices: devices,
		groups:  groups,
		now:     time.Now,
	}
}

func (s *LicenseService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.devices.List(ctx)
}

// CreateDevice регистрирует устройство вручную. Новое устройство
// заблокировано, пока его явно не разблокируют.
func (s *LicenseService) CreateDevice(ctx context.Context, name, groupName string) (*domain.Device, error) {
	t := s.now()
	d := &domain.Device{
		ID:           uuid.NewString(),
		AllowedUntil: t,
		Blocked:      true,
		ActivatedAt:  t,
		LastCheckIn:  t,
	}
	if name = strings.TrimSpace(name); name != "" {
		d.Name = &name
	}
	if groupName = strings.TrimSpace(groupName); groupName != "" {
		d.GroupName = &groupName
		if err := s.groups.Upsert(ctx, groupName); err != nil {
			return nil, err
		}
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *LicenseService) BlockDevice(ctx context.Context, id string) error {
	return s.devices.SetBlocked(ctx, id, true)
}

func (s *LicenseService) UnblockDevice(ctx context.Context, id string) error {
	return s.devices.SetBlocked(ctx, id, false)
}

// UnlockDevice снимает блокировку и продлевает лицензию: duration —
// число дней либо "forever".
func (s *LicenseService) UnlockDevice(ctx context.Context, id, duration string) (time.Time, error) {
	until := s.untilFor(duration)
	if err := s.devices.Unlock(ctx, id, until); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

func (s *LicenseService) RenameDevice(ctx context.Context, id, name string) error {
	return s.devices.Rename(ctx, id, strings.TrimSpace(name))
}

// AssignGroup привязывает устройство к группе. Если группа сейчас
// разблокирована и не просрочена, устройство наследует её допуск.
func (s *LicenseService) AssignGroup(ctx context.Context, id, groupName string) error {
	var namePtr *string
	if groupName = strings.TrimSpace(groupName); groupName != "" {
		namePtr = &groupName
	}
	if err := s.devices.SetGroup(ctx, id, namePtr); err != nil {
		return err
	}
	if namePtr == nil {
		return nil
	}

	g, err := s.groups.Get(ctx, groupName)
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return nil
		}
		return err
	}
	if !g.Locked && g.AllowedUntil != nil && g.AllowedUntil.After(s.now()) {
		return s.devices.Unlock(ctx, id, *g.AllowedUntil)
	}
	return nil
}

func (s *LicenseService) DeleteDevice(ctx context.Context, id string) error {
	return s.devices.Delete(ctx, id)
}

func (s *LicenseService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

func (s *LicenseService) CreateGroup(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrMissingField
	}
	return s.groups.Upsert(ctx, name)
}

func (s *LicenseService) LockGroup(ctx context.Context, name string) error {
	return s.groups.Lock(ctx, name)
}

func (s *LicenseService) UnlockGroup(ctx context.Context, name, duration string) error {
	return s.groups.Unlock(ctx, name, s.untilFor(duration))
}

func (s *LicenseService) DeleteGroup(ctx context.Context, name string) error {
	return s.groups.Delete(ctx, name)
}

// CheckNow — периодическая проверка лицензии устройством. Незнакомое
// устройство заводится заблокированным: допуск выдаёт администратор.
func (s *LicenseService) CheckNow(ctx context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return domain.ErrMissingField
	}

	now := s.now()
	dev, err := s.devices.Get(ctx, deviceID)
	if errors.Is(err, domain.ErrDeviceNotFound) {
		d := &domain.Device{
			ID:           deviceID,
			AllowedUntil: now,
			Blocked:      true,
			ActivatedAt:  now,
			LastCheckIn:  now,
		}
		if createErr := s.devices.Create(ctx, d); createErr != nil {
			return fmt.Errorf("register device: %w", createErr)
		}
		slog.Info("new device registered blocked", "device", deviceID)
		return domain.ErrDeviceCreated
	}
	if err != nil {
		return err
	}

	if dev.GroupName != nil {
		g, err := s.groups.Get(ctx, *dev.GroupName)
		if err != nil && !errors.Is(err, domain.ErrGroupNotFound) {
			return err
		}
		if g != nil && g.Locked {
			return domain.ErrGroupLocked
		}
	}
	if dev.Blocked {
		return domain.ErrDeviceBlocked
	}
	if dev.AllowedUntil.Before(now) {
		return domain.ErrLicenseExpired
	}

	return s.devices.TouchCheckIn(ctx, deviceID, now)
}

func (s *LicenseService) untilFor(duration string) time.Time {
	if duration == "forever" {
		return domain.ForeverUntil
	}
	days := defaultUnlockDays
	if n, err := strconv.Atoi(strings.TrimSpace(duration)); err == nil && n > 0 {
		days = n
	}
	return s.now().Add(time.Duration(days) * 24 * time.Hour)
}
