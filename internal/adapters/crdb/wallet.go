package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletEntry is one ledger line; the owner's balance only ever moves in the
// same transaction as the entry insert that justifies it.
type WalletEntry struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	BookingCode string
	Amount      int64 // negative for clawbacks
	Kind        string
	CreatedAt   time.Time
}

func (r *Repository) ApplyWalletEntry(ctx context.Context, tx pgx.Tx, entry WalletEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallet_entries (id, owner_id, booking_code, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.OwnerID, entry.BookingCode, entry.Amount, entry.Kind, entry.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO wallets (owner_id, balance) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET balance = wallets.balance + $2
	`, entry.OwnerID, entry.Amount)
	return err
}

func (r *Repository) WalletBalance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		SELECT balance FROM wallets WHERE owner_id = $1
	`, ownerID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return balance, err
}
