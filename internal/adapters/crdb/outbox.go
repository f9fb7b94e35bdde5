package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NotificationRecord is a queued out-of-band message. Rows are written in the
// same transaction as the state change they announce and relayed to the
// exchange by the outbox publisher, so a committed change never loses its
// notification.
type NotificationRecord struct {
	ID          uuid.UUID
	Recipient   uuid.UUID
	Kind        string
	BookingCode string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
	Status      string // NEW, PUBLISHED, FAILED
}

func (r *Repository) InsertNotification(ctx context.Context, tx pgx.Tx, rec NotificationRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO notification_outbox (id, recipient, kind, booking_code, payload_json, status)
		VALUES ($1, $2, $3, $4, $5, 'NEW')
	`, rec.ID, rec.Recipient, rec.Kind, rec.BookingCode, rec.Payload)
	return err
}

func (r *Repository) GetUnpublishedNotifications(ctx context.Context, limit int) ([]NotificationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient, kind, booking_code, payload_json, created_at, published_at, status
		FROM notification_outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var rec NotificationRecord
		err := rows.Scan(&rec.ID, &rec.Recipient, &rec.Kind, &rec.BookingCode, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) MarkNotificationPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, publishedAt)
	return err
}
