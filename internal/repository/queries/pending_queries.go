package queries

const (
	QueryAppendPending = `
		INSERT INTO pending_messages (conversation_id, recipient, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	// created_at — контракт порядка доставки, id добивает ничьи порядком вставки
	QueryListPendingOrdered = `
		SELECT id, conversation_id, recipient, message, created_at
		FROM pending_messages
		WHERE conversation_id = $1 AND recipient = $2
		ORDER BY created_at ASC, id ASC;
	`
	QueryListPendingByRecipient = `
		SELECT id, conversation_id, recipient, message, created_at
		FROM pending_messages
		WHERE recipient = $1
		ORDER BY created_at ASC, id ASC;
	`
	QueryDeletePendingByID  = `DELETE FROM pending_messages WHERE id = $1;`
	QueryDeletePendingByIDs = `DELETE FROM pending_messages WHERE id = ANY($1);`
	QueryCountPending       = `
		SELECT conversation_id, COUNT(*)
		FROM pending_messages
		WHERE recipient = $1
		GROUP BY conversation_id;
	`
)
