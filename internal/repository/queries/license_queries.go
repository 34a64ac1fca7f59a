package queries

const (
	QueryCreateDevice = `
		INSERT INTO devices (id, name, group_name, allowed_until, blocked, activated_at, last_check_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	QueryGetDevice = `
		SELECT id, name, group_name, allowed_until, blocked, activated_at, last_check_in
		FROM devices
		WHERE id = $1
		LIMIT 1;
	`
	QueryListDevices = `
		SELECT id, name, group_name, allowed_until, blocked, activated_at, last_check_in
		FROM devices
		ORDER BY activated_at DESC;
	`
	QuerySetDeviceBlocked = `UPDATE devices SET blocked = $2 WHERE id = $1;`
	QueryUnlockDevice     = `UPDATE devices SET blocked = FALSE, allowed_until = $2 WHERE id = $1;`
	QueryRenameDevice     = `UPDATE devices SET name = $2 WHERE id = $1;`
	QuerySetDeviceGroup   = `UPDATE devices SET group_name = $2 WHERE id = $1;`
	QueryTouchCheckIn     = `UPDATE devices SET last_check_in = $2 WHERE id = $1;`
	QueryDeleteDevice     = `DELETE FROM devices WHERE id = $1;`

	QueryUpsertGroup = `
		INSERT INTO device_groups (name, locked)
		VALUES ($1, TRUE)
		ON CONFLICT (name) DO NOTHING;
	`
	QueryGetGroup = `
		SELECT g.name, g.locked, g.allowed_until,
		       (SELECT COUNT(*) FROM devices d WHERE d.group_name = g.name) AS device_count
		FROM device_groups g
		WHERE g.name = $1
		LIMIT 1;
	`
	QueryListGroups = `
		SELECT g.name, g.locked, g.allowed_until,
		       (SELECT COUNT(*) FROM devices d WHERE d.group_name = g.name) AS device_count
		FROM device_groups g
		ORDER BY g.name;
	`
	QueryLockGroup = `UPDATE device_groups SET locked = TRUE WHERE name = $1;`
	// блокировка группы каскадно блокирует её устройства
	QueryBlockGroupDevices = `UPDATE devices SET blocked = TRUE WHERE group_name = $1;`
	QueryUnlockGroup       = `UPDATE device_groups SET locked = FALSE, allowed_until = $2 WHERE name = $1;`
	QueryDeleteGroup       = `DELETE FROM device_groups WHERE name = $1;`
)
