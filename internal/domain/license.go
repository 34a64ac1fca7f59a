package domain

import "time"

// ForeverUntil — «бессрочная» лицензия.
var ForeverUntil = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

type Device struct {
	ID           string    `db:"id"`
	Name         *string   `db:"name"`
	GroupName    *string   `db:"group_name"`
	AllowedUntil time.Time `db:"allowed_until"`
	Blocked      bool      `db:"blocked"`
	ActivatedAt  time.Time `db:"activated_at"`
	LastCheckIn  time.Time `db:"last_check_in"`
}

type Group struct {
	Name         string     `db:"name"`
	Locked       bool       `db:"locked"`
	AllowedUntil *time.Time `db:"allowed_until"`
	DeviceCount  int64      `db:"device_count"`
}
