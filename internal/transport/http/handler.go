package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/service"

	"github.com/samber/lo"
)

type Handler struct {
	relaySvc *service.RelayService
}

func NewHandler(relay *service.RelayService) *Handler {
	return &Handler{relaySvc: relay}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /messages — приём сообщения от внешнего отправителя.
// Получатель онлайн и подписан — доставка сразу, иначе в очередь.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	err := h.relaySvc.Submit(r.Context(), req.From, req.To, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrMissingField) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing from/to/payload"})
			return
		}
		slog.Error("handler.SendMessage:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, OkResponse{Ok: true})
}

// GET /messages/pending?me=&room= — забрать и удалить отложенные
// конверты для пары (получатель, диалог).
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	me := r.URL.Query().Get("me")
	room := r.URL.Query().Get("room")
	if me == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing me"})
		return
	}
	if room == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing room"})
		return
	}

	envelopes, err := h.relaySvc.TakePending(r.Context(), me, room)
	if err != nil {
		slog.Error("handler.GetPending:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	items := lo.Map(envelopes, func(e domain.Envelope, _ int) PendingItem {
		return PendingItem{
			ConversationID: e.ConversationID,
			Payload:        e.Payload,
			Timestamp:      e.Timestamp,
		}
	})
	writeJSON(w, http.StatusOK, items)
}

// GET /messages/pending-counts?me= — счётчики для бейджей по собеседникам.
func (h *Handler) GetPendingCounts(w http.ResponseWriter, r *http.Request) {
	me := r.URL.Query().Get("me")
	if me == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing me"})
		return
	}

	counts, err := h.relaySvc.PendingCounts(r.Context(), me)
	if err != nil {
		slog.Error("handler.GetPendingCounts:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, counts)
}
