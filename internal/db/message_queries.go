package db

import (
	"context"
	"fmt"
	"time"
)

// MessageListItem is used by the messages API and CLI commands.
type MessageListItem struct {
	MessageID     int64      `json:"message_id"`
	MessageUUID   string     `json:"message_uuid"`
	ExternalID    string     `json:"external_id"`
	SenderPhone   string     `json:"sender_phone"`
	Body          string     `json:"body"`
	Status        string     `json:"status"`
	IgnoredReason *string    `json:"ignored_reason,omitempty"`
	ProviderID    *int64     `json:"provider_id,omitempty"`
	ProviderName  *string    `json:"provider_name,omitempty"`
	ProductsCount int        `json:"products_count"`
	ReceivedAt    time.Time  `json:"received_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// MessageStats summarizes raw message processing state.
type MessageStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Processed int64 `json:"processed"`
	Ignored   int64 `json:"ignored"`
}

const messageSelectColumns = `
	m.message_id,
	m.message_uuid::text,
	m.external_id,
	m.sender_phone,
	m.body,
	m.status,
	m.ignored_reason,
	m.provider_id,
	p.name,
	m.products_count,
	m.received_at,
	m.processed_at
`

// CreateRawMessage stores an inbound message in pending state. The external id
// carries idempotency: a replayed id returns the original row with created=false.
func (p *Pool) CreateRawMessage(ctx context.Context, externalID, senderPhone, body string) (int64, bool, error) {
	const insertQ = `
INSERT INTO catalog.raw_messages (external_id, sender_phone, body, status)
VALUES ($1, $2, $3, 'pending')
ON CONFLICT (external_id) DO NOTHING
RETURNING message_id
`

	var messageID int64
	err := p.QueryRow(ctx, insertQ, externalID, senderPhone, body).Scan(&messageID)
	if err == nil {
		return messageID, true, nil
	}
	if !IsNoRows(err) {
		return 0, false, fmt.Errorf("insert raw message: %w", err)
	}

	const existingQ = `SELECT message_id FROM catalog.raw_messages WHERE external_id = $1`
	if err := p.QueryRow(ctx, existingQ, externalID).Scan(&messageID); err != nil {
		return 0, false, fmt.Errorf("load existing raw message: %w", err)
	}
	return messageID, false, nil
}

// LinkMessageProvider attaches the resolved provider to a pending message.
func (p *Pool) LinkMessageProvider(ctx context.Context, messageID, providerID int64) error {
	const q = `
UPDATE catalog.raw_messages
SET provider_id = $2,
    updated_at = NOW()
WHERE message_id = $1
`
	tag, err := p.Exec(ctx, q, messageID, providerID)
	if err != nil {
		return fmt.Errorf("link message provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link message provider: message %d not found", messageID)
	}
	return nil
}

// MarkMessageIgnored finalizes a message as ignored with a machine-readable reason.
func (p *Pool) MarkMessageIgnored(ctx context.Context, messageID int64, reason string) error {
	const q = `
UPDATE catalog.raw_messages
SET status = 'ignored',
    ignored_reason = $2,
    processed_at = NOW(),
    updated_at = NOW()
WHERE message_id = $1
`
	tag, err := p.Exec(ctx, q, messageID, reason)
	if err != nil {
		return fmt.Errorf("mark message ignored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark message ignored: message %d not found", messageID)
	}
	return nil
}

// MarkMessageProcessed finalizes a message after its items ran, recording how
// many line items were extracted.
func (p *Pool) MarkMessageProcessed(ctx context.Context, messageID int64, productsCount int) error {
	const q = `
UPDATE catalog.raw_messages
SET status = 'processed',
    ignored_reason = NULL,
    products_count = $2,
    processed_at = NOW(),
    updated_at = NOW()
WHERE message_id = $1
`
	tag, err := p.Exec(ctx, q, messageID, productsCount)
	if err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark message processed: message %d not found", messageID)
	}
	return nil
}

// ListMessages returns messages newest-first with a total count for paging.
func (p *Pool) ListMessages(ctx context.Context, limit, offset int) ([]MessageListItem, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM catalog.raw_messages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count raw messages: %w", err)
	}

	q := `
SELECT ` + messageSelectColumns + `
FROM catalog.raw_messages m
LEFT JOIN catalog.providers p ON p.provider_id = m.provider_id
ORDER BY m.received_at DESC, m.message_id DESC
LIMIT $1 OFFSET $2
`

	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query raw messages: %w", err)
	}
	defer rows.Close()

	items, err := scanMessageRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RecentMessages returns the newest processed or ignored messages.
func (p *Pool) RecentMessages(ctx context.Context, limit int) ([]MessageListItem, error) {
	if limit <= 0 {
		limit = 10
	}

	q := `
SELECT ` + messageSelectColumns + `
FROM catalog.raw_messages m
LEFT JOIN catalog.providers p ON p.provider_id = m.provider_id
WHERE m.status <> 'pending'
ORDER BY m.processed_at DESC NULLS LAST, m.message_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessageRows(rows)
}

// GetMessage loads one message by id.
func (p *Pool) GetMessage(ctx context.Context, messageID int64) (*MessageListItem, error) {
	q := `
SELECT ` + messageSelectColumns + `
FROM catalog.raw_messages m
LEFT JOIN catalog.providers p ON p.provider_id = m.provider_id
WHERE m.message_id = $1
`

	var item MessageListItem
	err := p.QueryRow(ctx, q, messageID).Scan(
		&item.MessageID,
		&item.MessageUUID,
		&item.ExternalID,
		&item.SenderPhone,
		&item.Body,
		&item.Status,
		&item.IgnoredReason,
		&item.ProviderID,
		&item.ProviderName,
		&item.ProductsCount,
		&item.ReceivedAt,
		&item.ProcessedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &item, nil
}

// DeleteMessage removes one message by id.
func (p *Pool) DeleteMessage(ctx context.Context, messageID int64) error {
	tag, err := p.Exec(ctx, `DELETE FROM catalog.raw_messages WHERE message_id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// GetMessageStats reports message counts by status.
func (p *Pool) GetMessageStats(ctx context.Context) (*MessageStats, error) {
	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'pending'),
	COUNT(*) FILTER (WHERE status = 'processed'),
	COUNT(*) FILTER (WHERE status = 'ignored')
FROM catalog.raw_messages
`

	var stats MessageStats
	if err := p.QueryRow(ctx, q).Scan(&stats.Total, &stats.Pending, &stats.Processed, &stats.Ignored); err != nil {
		return nil, fmt.Errorf("query message stats: %w", err)
	}
	return &stats, nil
}

// NextPendingMessage returns the oldest pending message, or found=false when
// no pending work remains.
func (p *Pool) NextPendingMessage(ctx context.Context) (*MessageListItem, bool, error) {
	const q = `
SELECT
	m.message_id,
	m.message_uuid::text,
	m.external_id,
	m.sender_phone,
	m.body,
	m.status,
	m.products_count,
	m.received_at
FROM catalog.raw_messages m
WHERE m.status = 'pending'
ORDER BY m.received_at ASC, m.message_id ASC
LIMIT 1
`

	var item MessageListItem
	err := p.QueryRow(ctx, q).Scan(
		&item.MessageID,
		&item.MessageUUID,
		&item.ExternalID,
		&item.SenderPhone,
		&item.Body,
		&item.Status,
		&item.ProductsCount,
		&item.ReceivedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("claim pending message: %w", err)
	}
	return &item, true, nil
}

func scanMessageRows(rows *Rows) ([]MessageListItem, error) {
	items := make([]MessageListItem, 0, 16)
	for rows.Next() {
		var item MessageListItem
		if err := rows.Scan(
			&item.MessageID,
			&item.MessageUUID,
			&item.ExternalID,
			&item.SenderPhone,
			&item.Body,
			&item.Status,
			&item.IgnoredReason,
			&item.ProviderID,
			&item.ProviderName,
			&item.ProductsCount,
			&item.ReceivedAt,
			&item.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return items, nil
}
