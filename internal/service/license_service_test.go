package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*domain.Device
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: make(map[string]*domain.Device)}
}

func (r *memDeviceRepo) Create(_ context.Context, d *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.devices[d.ID] = &cp
	return nil
}

func (r *memDeviceRepo) Get(_ context.Context, id string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDeviceRepo) List(_ context.Context) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivatedAt.After(out[j].ActivatedAt) })
	return out, nil
}

func (r *memDeviceRepo) update(id string, fn func(*domain.Device)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return domain.ErrDeviceNotFound
	}
	fn(d)
	return nil
}

func (r *memDeviceRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	return r.update(id, func(d *domain.Device) { d.Blocked = blocked })
}

func (r *memDeviceRepo) Unlock(_ context.Context, id string, until time.Time) error {
	return r.update(id, func(d *domain.Device) { d.Blocked = false; d.AllowedUntil = until })
}

func (r *memDeviceRepo) Rename(_ context.Context, id string, name string) error {
	return r.update(id, func(d *domain.Device) { d.Name = &name })
}

func (r *memDeviceRepo) SetGroup(_ context.Context, id string, groupName *string) error {
	return r.update(id, func(d *domain.Device) { d.GroupName = groupName })
}

func (r *memDeviceRepo) TouchCheckIn(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(d *domain.Device) { d.LastCheckIn = at })
}

func (r *memDeviceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return domain.ErrDeviceNotFound
	}
	delete(r.devices, id)
	return nil
}

type memGroupRepo struct {
	mu      sync.Mutex
	groups  map[string]*domain.Group
	devices *memDeviceRepo
}

func newMemGroupRepo(devices *memDeviceRepo) *memGroupRepo {
	return &memGroupRepo{groups: make(map[string]*domain.Group), devices: devices}
}

func (r *memGroupRepo) Upsert(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; !ok {
		r.groups[name] = &domain.Group{Name: name, Locked: true}
	}
	return nil
}

func (r *memGroupRepo) Get(_ context.Context, name string) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGroupRepo) List(_ context.Context) ([]domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGroupRepo) Lock(ctx context.Context, name string) error {
	r.mu.Lock()
	g, ok := r.groups[name]
	if !ok {
		r.mu.Unlock()
		return domain.ErrGroupNotFound
	}
	g.Locked = true
	r.mu.Unlock()

	// каскадная блокировка устройств группы
	r.devices.mu.Lock()
	defer r.devices.mu.Unlock()
	for _, d := range r.devices.devices {
		if d.GroupName != nil && *d.GroupName == name {
			d.Blocked = true
		}
	}
	return nil
}

func (r *memGroupRepo) Unlock(_ context.Context, name string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return domain.ErrGroupNotFound
	}
	g.Locked = false
	g.AllowedUntil = &until
	return nil
}

func (r *memGroupRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(r.groups, name)
	return nil
}

func newLicense(t *testing.T) (*LicenseService, *memDeviceRepo, *memGroupRepo) {
	t.Helper()
	devices := newMemDeviceRepo()
	groups := newMemGroupRepo(devices)
	svc := NewLicenseService(devices, groups)
	return svc, devices, groups
}

func TestCheckNow_UnknownDeviceRegisteredBlocked(t *testing.T) {
	svc, devices, _ := newLicense(t)
	ctx := context.Background()

	err := svc.CheckNow(ctx, "dev-1")
	assert.ErrorIs(t, err, domain.ErrDeviceCreated)

	d, err := devices.Get(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, d.Blocked)

	// повторный check-now уже видит устройство, но оно заблокировано
	assert.ErrorIs(t, svc.CheckNow(ctx, "dev-1"), domain.ErrDeviceBlocked)
}

func TestCheckNow_UnlockLifecycle(t *testing.T) {
	svc, devices, _ := newLicense(t)
	ctx := context.Background()

	_ = svc.CheckNow(ctx, "dev-1")
	until, err := svc.UnlockDevice(ctx, "dev-1", "30")
	require.NoError(t, err)
	assert.True(t, until.After(time.Now()))

	require.NoError(t, svc.CheckNow(ctx, "dev-1"))

	d, err := devices.Get(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, d.Blocked)
	// check-now обновляет last_check_in
	assert.WithinDuration(t, time.Now(), d.LastCheckIn, 5*time.Second)
}

func TestCheckNow_Expired(t *testing.T) {
	svc, devices, _ := newLicense(t)
	ctx := context.Background()

	_ = svc.CheckNow(ctx, "dev-1")
	require.NoError(t, devices.Unlock(ctx, "dev-1", time.Now().Add(-time.Hour)))

	assert.ErrorIs(t, svc.CheckNow(ctx, "dev-1"), domain.ErrLicenseExpired)
}

func TestCheckNow_GroupLockWins(t *testing.T) {
	svc, _, _ := newLicense(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, "kiosk", "showroom")
	require.NoError(t, err)
	// новая группа заводится заблокированной
	assert.ErrorIs(t, svc.CheckNow(ctx, d.ID), domain.ErrGroupLocked)

	require.NoError(t, svc.UnlockGroup(ctx, "showroom", "30"))
	_, err = svc.UnlockDevice(ctx, d.ID, "forever")
	require.NoError(t, err)
	require.NoError(t, svc.CheckNow(ctx, d.ID))

	// блокировка группы перекрывает личный допуск устройства
	require.NoError(t, svc.LockGroup(ctx, "showroom"))
	assert.ErrorIs(t, svc.CheckNow(ctx, d.ID), domain.ErrGroupLocked)
}

func TestUnlockDevice_Forever(t *testing.T) {
	svc, _, _ := newLicense(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, "", "")
	require.NoError(t, err)

	until, err := svc.UnlockDevice(ctx, d.ID, "forever")
	require.NoError(t, err)
	assert.Equal(t, domain.ForeverUntil, until)
}

func TestAssignGroup_InheritsAllowance(t *testing.T) {
	svc, devices, _ := newLicense(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateGroup(ctx, "field"))
	require.NoError(t, svc.UnlockGroup(ctx, "field", "90"))

	d, err := svc.CreateDevice(ctx, "tablet", "")
	require.NoError(t, err)
	require.NoError(t, svc.AssignGroup(ctx, d.ID, "field"))

	got, err := devices.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, got.Blocked)
	assert.True(t, got.AllowedUntil.After(time.Now()))
}

func TestCreateDevice_StartsBlocked(t *testing.T) {
	svc, _, groups := newLicense(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, "kiosk", "showroom")
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.True(t, d.Blocked)

	// группа заводится автоматически, заблокированной
	g, err := groups.Get(ctx, "showroom")
	require.NoError(t, err)
	assert.True(t, g.Locked)
}

func TestCreateGroup_MissingName(t *testing.T) {
	svc, _, _ := newLicense(t)
	assert.ErrorIs(t, svc.CreateGroup(context.Background(), "  "), domain.ErrMissingField)
}
