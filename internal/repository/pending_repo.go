package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

type PendingRepository interface {
	// Кладёт сериализованный конверт в очередь, возвращает id строки
	Append(ctx context.Context, conversationID, recipient string, message []byte, createdAt time.Time) (int64, error)
	// Все отложенные сообщения пары (диалог, получатель) в порядке создания
	ListOrdered(ctx context.Context, conversationID, recipient string) ([]domain.PendingMessage, error)
	// Удаляет строку по id; несуществующий id — no-op
	DeleteByID(ctx context.Context, id int64) error
	// Атомарно выбирает и удаляет ровно выбранные строки получателя.
	// Пустой conversationID — все диалоги получателя.
	Take(ctx context.Context, recipient, conversationID string) ([]domain.PendingMessage, error)
	// Количество отложенных строк получателя по диалогам
	CountByConversation(ctx context.Context, recipient string) (map[string]int, error)
}
