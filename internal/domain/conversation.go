package domain

import "strings"

// Разделитель не должен встречаться в идентификаторах участников.
const conversationSep = "|"

// ConversationID строит канонический id диалога двух участников.
// Коммутативен: ConversationID(a, b) == ConversationID(b, a).
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + conversationSep + b
}

// PeerOf возвращает второго участника диалога conversationID
// относительно me. Пустая строка, если me не входит в пару.
func PeerOf(conversationID, me string) string {
	a, b, ok := strings.Cut(conversationID, conversationSep)
	if !ok {
		return ""
	}
	switch me {
	case a:
		return b
	case b:
		return a
	default:
		return ""
	}
}
