package http

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type OkResponse struct {
	Ok bool `json:"ok"`
}

// --- relay ---

type SendMessageRequest struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

type PendingItem struct {
	ConversationID string          `json:"conversationId"`
	Payload        json.RawMessage `json:"payload"`
	Timestamp      int64           `json:"timestamp"`
}

// --- license admin ---

type CreateDeviceRequest struct {
	Name      string `json:"name"`
	GroupName string `json:"groupName"`
}

type CreateDeviceResponse struct {
	Ok bool   `json:"ok"`
	ID string `json:"id"`
}

type DeviceItem struct {
	ID           string    `json:"id"`
	Name         *string   `json:"name"`
	GroupName    *string   `json:"groupName"`
	AllowedUntil time.Time `json:"allowedUntil"`
	Blocked      bool      `json:"blocked"`
	ActivatedAt  time.Time `json:"activatedAt"`
	LastCheckIn  time.Time `json:"lastCheckIn"`
}

type GroupItem struct {
	Name         string     `json:"name"`
	Locked       bool       `json:"locked"`
	AllowedUntil *time.Time `json:"allowedUntil"`
	DeviceCount  int64      `json:"deviceCount"`
}

type UnlockRequest struct {
	// число дней ("30", "90", ...) либо "forever"
	Duration string `json:"duration"`
}

type UnlockDeviceResponse struct {
	Ok           bool      `json:"ok"`
	AllowedUntil time.Time `json:"allowedUntil"`
}

type RenameDeviceRequest struct {
	Name string `json:"name"`
}

type AssignGroupRequest struct {
	GroupName string `json:"groupName"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CheckNowRequest struct {
	DeviceID string `json:"deviceId"`
}
