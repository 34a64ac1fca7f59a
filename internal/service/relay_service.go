package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/presence"
	"github.com/cwrk-planet/relay-service/internal/repository"
)

// HintFrame — лёгкое уведомление «есть непрочитанное» для участника,
// который онлайн, но смотрит другой диалог. Fire-and-forget: потеря
// кадра не влияет на корректность, источник истины — очередь.
type HintFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Peer           string `json:"peer"`
}

const hintType = "unread_hint"

// RelayService решает: доставить сообщение вживую или отложить в очередь.
type RelayService struct {
	pending  repository.PendingRepository
	registry *presence.Registry

	now func() time.Time
}

func NewRelayService(pending repository.PendingRepository, registry *presence.Registry) *RelayService {
	return &RelayService{
		pending:  pending,
		registry: registry,
		now:      time.Now,
	}
}

// Submit принимает сообщение от from к to. Онлайн и подписан — шлём
// сразу; иначе кладём в очередь. Ошибка живой отправки равносильна
// «недоставимо»: сообщение уходит в очередь, мёртвое соединение
// вытесняется из реестра.
func (s *RelayService) Submit(ctx context.Context, from, to string, payload json.RawMessage) error {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" || len(payload) == 0 {
		return domain.ErrMissingField
	}

	conversationID := domain.ConversationID(from, to)
	now := s.now()
	env := domain.Envelope{
		Payload:        payload,
		Timestamp:      now.UnixMilli(),
		ConversationID: conversationID,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	conn, subscribed := s.registry.Presence(to, conversationID)
	if conn != nil && subscribed {
		if err := conn.Send(raw); err == nil {
			return nil
		}
		// соединение числится живым, но писать в него нельзя
		slog.Warn("live send failed, buffering", "to", to, "conversation", conversationID)
		s.registry.Unregister(to, conn)
		conn = nil
	}

	if _, err := s.pending.Append(ctx, conversationID, to, raw, now); err != nil {
		return fmt.Errorf("buffer message: %w", err)
	}

	if conn != nil {
		hint, _ := json.Marshal(HintFrame{
			Type:           hintType,
			ConversationID: conversationID,
			Peer:           from,
		})
		if err := conn.Send(hint); err != nil {
			slog.Debug("unread hint send failed", "to", to, "err", err)
		}
	}
	return nil
}

// OnJoin регистрирует подписку и выливает накопленную очередь пары
// (диалог, участник) в порядке создания. Каждая строка удаляется
// только после успешной отправки; обрыв соединения прерывает слив,
// остаток остаётся в очереди до следующего join или fetch.
func (s *RelayService) OnJoin(ctx context.Context, participantID, conversationID string) error {
	s.registry.Join(participantID, conversationID)

	msgs, err := s.pending.ListOrdered(ctx, conversationID, participantID)
	if err != nil {
		return fmt.Errorf("flush on join: %w", err)
	}

	for _, m := range msgs {
		conn, ok := s.registry.Lookup(participantID)
		if !ok {
			slog.Debug("flush aborted, participant gone",
				"participant", participantID, "conversation", conversationID)
			return nil
		}
		if err := conn.Send(m.Message); err != nil {
			slog.Warn("flush send failed", "participant", participantID, "err", err)
			return nil
		}
		if err := s.pending.DeleteByID(ctx, m.ID); err != nil {
			return fmt.Errorf("flush on join: delete %d: %w", m.ID, err)
		}
	}
	return nil
}

// OnLeave снимает только подписку, очередь не трогает.
func (s *RelayService) OnLeave(participantID, conversationID string) {
	s.registry.Leave(participantID, conversationID)
}

// TakePending атомарно забирает и удаляет отложенные конверты
// получателя. Pull-вариант доставки для клиента без живого соединения.
func (s *RelayService) TakePending(ctx context.Context, recipient, conversationID string) ([]domain.Envelope, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, domain.ErrMissingField
	}

	rows, err := s.pending.Take(ctx, recipient, conversationID)
	if err != nil {
		return nil, fmt.Errorf("take pending: %w", err)
	}

	out := make([]domain.Envelope, 0, len(rows))
	for _, m := range rows {
		var env domain.Envelope
		if err := json.Unmarshal(m.Message, &env); err != nil {
			// строка уже снята с хранения, терять соседние нельзя
			slog.Error("malformed buffered envelope", "id", m.ID, "err", err)
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

// PendingCounts — счётчики непрочитанного по собеседникам для бейджей.
func (s *RelayService) PendingCounts(ctx context.Context, recipient string) (map[string]int, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, domain.ErrMissingField
	}

	byConversation, err := s.pending.CountByConversation(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("pending counts: %w", err)
	}

	counts := make(map[string]int, len(byConversation))
	for conversationID, n := range byConversation {
		if peer := domain.PeerOf(conversationID, recipient); peer != "" {
			counts[peer] += n
		}
	}
	return counts, nil
}
