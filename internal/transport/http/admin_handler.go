package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type AdminHandler struct {
	licenseSvc *service.LicenseService
}

func NewAdminHandler(license *service.LicenseService) *AdminHandler {
	return &AdminHandler{licenseSvc: license}
}

// GET /admin/devices
func (h *AdminHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.licenseSvc.ListDevices(r.Context())
	if err != nil {
		slog.Error("admin.ListDevices:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	items := lo.Map(devices, func(d domain.Device, _ int) DeviceItem {
		return DeviceItem{
			ID:           d.ID,
			Name:         d.Name,
			GroupName:    d.GroupName,
			AllowedUntil: d.AllowedUntil,
			Blocked:      d.Blocked,
			ActivatedAt:  d.ActivatedAt,
			LastCheckIn:  d.LastCheckIn,
		}
	})
	writeJSON(w, http.StatusOK, items)
}

// POST /admin/devices/new
func (h *AdminHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	d, err := h.licenseSvc.CreateDevice(r.Context(), req.Name, req.GroupName)
	if err != nil {
		slog.Error("admin.CreateDevice:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, CreateDeviceResponse{Ok: true, ID: d.ID})
}

// POST /admin/devices/{id}/block
func (h *AdminHandler) BlockDevice(w http.ResponseWriter, r *http.Request) {
	h.deviceAction(w, r, h.licenseSvc.BlockDevice)
}

// POST /admin/devices/{id}/unblock
func (h *AdminHandler) UnblockDevice(w http.ResponseWriter, r *http.Request) {
	h.deviceAction(w, r, h.licenseSvc.UnblockDevice)
}

// POST /admin/devices/{id}/unlock
func (h *AdminHandler) UnlockDevice(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	until, err := h.licenseSvc.UnlockDevice(r.Context(), chi.URLParam(r, "id"), req.Duration)
	if err != nil {
		h.writeDeviceError(w, "admin.UnlockDevice", err)
		return
	}

	writeJSON(w, http.StatusOK, UnlockDeviceResponse{Ok: true, AllowedUntil: until})
}

// PATCH /admin/devices/{id}/rename
func (h *AdminHandler) RenameDevice(w http.ResponseWriter, r *http.Request) {
	var req RenameDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.licenseSvc.RenameDevice(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		h.writeDeviceError(w, "admin.RenameDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

// PATCH /admin/devices/{id}/group
func (h *AdminHandler) AssignGroup(w http.ResponseWriter, r *http.Request) {
	var req AssignGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.licenseSvc.AssignGroup(r.Context(), chi.URLParam(r, "id"), req.GroupName); err != nil {
		h.writeDeviceError(w, "admin.AssignGroup", err)
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

// DELETE /admin/devices/{id}
func (h *AdminHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	h.deviceAction(w, r, h.licenseSvc.DeleteDevice)
}

// GET /admin/groups
func (h *AdminHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.licenseSvc.ListGroups(r.Context())
	if err != nil {
		slog.Error("admin.ListGroups:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	items := lo.Map(groups, func(g domain.Group, _ int) GroupItem {
		return GroupItem{
			Name:         g.Name,
			Locked:       g.Locked,
			AllowedUntil: g.AllowedUntil,
			DeviceCount:  g.DeviceCount,
		}
	})
	writeJSON(w, http.StatusOK, items)
}

// POST /admin/groups
func (h *AdminHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.licenseSvc.CreateGroup(r.Context(), req.Name); err != nil {
		if errors.Is(err, domain.ErrMissingField) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing name"})
			return
		}
		slog.Error("admin.CreateGroup:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

// POST /admin/groups/{name}/lock
func (h *AdminHandler) LockGroup(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, h.licenseSvc.LockGroup)
}

// POST /admin/groups/{name}/unlock
func (h *AdminHandler) UnlockGroup(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.licenseSvc.UnlockGroup(r.Context(), chi.URLParam(r, "name"), req.Duration); err != nil {
		h.writeGroupError(w, "admin.UnlockGroup", err)
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

// DELETE /admin/groups/{name}
func (h *AdminHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	h.groupAction(w, r, h.licenseSvc.DeleteGroup)
}

// POST /api/check-now — runtime-проверка лицензии устройством.
func (h *AdminHandler) CheckNow(w http.ResponseWriter, r *http.Request) {
	var req CheckNowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	err := h.licenseSvc.CheckNow(r.Context(), req.DeviceID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, OkResponse{Ok: true})
	case errors.Is(err, domain.ErrMissingField):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing deviceId"})
	case errors.Is(err, domain.ErrDeviceCreated):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "device_created_blocked"})
	case errors.Is(err, domain.ErrGroupLocked):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "group_locked"})
	case errors.Is(err, domain.ErrDeviceBlocked):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "blocked"})
	case errors.Is(err, domain.ErrLicenseExpired):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "expired"})
	default:
		slog.Error("admin.CheckNow:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// --- helpers ---

func (h *AdminHandler) deviceAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	if err := fn(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDeviceError(w, "admin.deviceAction", err)
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

func (h *AdminHandler) groupAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, name string) error) {
	if err := fn(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeGroupError(w, "admin.groupAction", err)
		return
	}
	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

func (h *AdminHandler) writeDeviceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrDeviceNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "device not found"})
		return
	}
	slog.Error(op+":", slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func (h *AdminHandler) writeGroupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrGroupNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "group not found"})
		return
	}
	slog.Error(op+":", slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}
