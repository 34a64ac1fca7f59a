package domain

import "errors"

var (
	ErrMissingField = errors.New("missing required field")

	ErrDeviceNotFound = errors.New("device not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrDeviceCreated  = errors.New("device created and blocked")
	ErrDeviceBlocked  = errors.New("device is blocked")
	ErrGroupLocked    = errors.New("device group is locked")
	ErrLicenseExpired = errors.New("license expired")
)
