package crdb

import (
	"context"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreatePaymentIntent(ctx context.Context, tx pgx.Tx, intent domain.PaymentIntent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_intents (id, booking_code, amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, 'PENDING', $5)
	`, intent.ID, intent.BookingCode, intent.Amount, intent.Method, intent.CreatedAt)
	return err
}

func (r *Repository) GetIntentForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := tx.QueryRow(ctx, `
		SELECT id, booking_code, amount, method, status, created_at
		FROM payment_intents WHERE id = $1
		FOR UPDATE
	`, id).Scan(&intent.ID, &intent.BookingCode, &intent.Amount, &intent.Method, &intent.Status, &intent.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *Repository) MarkIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	result, err := tx.Exec(ctx, `
		UPDATE payment_intents SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
