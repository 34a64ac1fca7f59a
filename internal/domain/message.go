package domain

import (
	"encoding/json"
	"time"
)

// Envelope — кадр, который уходит получателю по живому соединению
// и в таком же виде лежит в очереди. Payload сервер не интерпретирует.
type Envelope struct {
	Payload        json.RawMessage `json:"payload"`
	Timestamp      int64           `json:"timestamp"` // unix ms
	ConversationID string          `json:"conversationId"`
}

// PendingMessage — строка очереди отложенной доставки.
// Message хранит сериализованный Envelope byte-в-byte.
type PendingMessage struct {
	ID             int64     `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Recipient      string    `db:"recipient"`
	Message        []byte    `db:"message"`
	CreatedAt      time.Time `db:"created_at"`
}
