package crdb

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCancellationRequest inserts the request. The partial unique index on
// (booking_code) WHERE status = 'PENDING' turns a duplicate in-flight request
// into a constraint violation, which the workflow maps to ErrDuplicateRequest.
func (r *Repository) CreateCancellationRequest(ctx context.Context, tx pgx.Tx, req domain.CancellationRequest) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cancellation_requests (id, booking_code, customer_id, reason, refund_amount,
			penalty_percent, decision_token, previous_status, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PENDING', $9)
	`, req.ID, req.BookingCode, req.CustomerID, req.Reason, req.RefundAmount,
		req.PenaltyPercent, req.DecisionToken, req.PreviousStatus, req.CreatedAt)
	return err
}

// GetPendingRequestByToken locks the request row so two concurrent decisions
// on the same token serialize; the loser sees a consumed token.
func (r *Repository) GetPendingRequestByToken(ctx context.Context, tx pgx.Tx, token string) (*domain.CancellationRequest, error) {
	var req domain.CancellationRequest
	err := tx.QueryRow(ctx, `
		SELECT id, booking_code, customer_id, reason, refund_amount, penalty_percent,
			decision_token, previous_status, status, created_at, decided_at
		FROM cancellation_requests WHERE decision_token = $1
		FOR UPDATE
	`, token).Scan(&req.ID, &req.BookingCode, &req.CustomerID, &req.Reason, &req.RefundAmount,
		&req.PenaltyPercent, &req.DecisionToken, &req.PreviousStatus, &req.Status, &req.CreatedAt, &req.DecidedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestPending {
		return nil, domain.ErrAlreadyProcessed
	}
	return &req, nil
}

func (r *Repository) HasPendingRequest(ctx context.Context, tx pgx.Tx, bookingCode string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cancellation_requests WHERE booking_code = $1 AND status = 'PENDING'
		)
	`, bookingCode).Scan(&exists)
	return exists, err
}

func (r *Repository) ResolveRequest(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, decidedAt time.Time) error {
	result, err := tx.Exec(ctx, `
		UPDATE cancellation_requests SET status = $2, decided_at = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, status, decidedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}
