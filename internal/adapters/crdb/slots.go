package crdb

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LockWindow takes exclusive locks on every non-cancelled slot row matching
// the window. Concurrent reservations for the same window serialize here; the
// loser blocks until the winner commits and then sees the winner's rows.
func (r *Repository) LockWindow(ctx context.Context, tx pgx.Tx, facilityID uuid.UUID, w domain.Window) ([]domain.Slot, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, facility_id, court_id, date, start_time, end_time, status, booking_code, hold_deadline
		FROM slots
		WHERE facility_id = $1 AND date = $2 AND start_time = $3 AND end_time = $4
		  AND status <> 'CANCELLED'
		FOR UPDATE
	`, facilityID, w.Date, w.StartTime, w.EndTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		var code *string
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.CourtID, &s.Date, &s.StartTime, &s.EndTime, &s.Status, &code, &s.HoldDeadline); err != nil {
			return nil, err
		}
		if code != nil {
			s.BookingCode = *code
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// HoldSlot transitions an existing row to HELD, or inserts a fresh HELD row
// when the window had never been materialized for that court.
func (r *Repository) HoldSlot(ctx context.Context, tx pgx.Tx, existing *domain.Slot, facilityID, courtID uuid.UUID, w domain.Window, bookingCode string, deadline time.Time) error {
	if existing != nil {
		_, err := tx.Exec(ctx, `
			UPDATE slots SET status = 'HELD', booking_code = $2, hold_deadline = $3
			WHERE id = $1
		`, existing.ID, bookingCode, deadline)
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO slots (id, facility_id, court_id, date, start_time, end_time, status, booking_code, hold_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, 'HELD', $7, $8)
	`, uuid.New(), facilityID, courtID, w.Date, w.StartTime, w.EndTime, bookingCode, deadline)
	return err
}

// ConfirmSlots moves a booking's held slots to BOOKED on payment settlement.
func (r *Repository) ConfirmSlots(ctx context.Context, tx pgx.Tx, bookingCode string) error {
	_, err := tx.Exec(ctx, `
		UPDATE slots SET status = 'BOOKED', hold_deadline = NULL
		WHERE booking_code = $1 AND status = 'HELD'
	`, bookingCode)
	return err
}

// FreeSlotsForBookings hands slots back to the pool and severs the booking
// linkage. Used by the reclaimer and by cancellation approval.
func (r *Repository) FreeSlotsForBookings(ctx context.Context, tx pgx.Tx, bookingCodes []string) error {
	_, err := tx.Exec(ctx, `
		UPDATE slots SET status = 'AVAILABLE', booking_code = NULL, hold_deadline = NULL
		WHERE booking_code = ANY($1)
	`, bookingCodes)
	return err
}

// ExpiredHoldBookings returns the booking codes whose held slots are past
// deadline, locking the slot rows so a concurrent reservation attempt on the
// same windows serializes against the sweep. DISTINCT cannot be combined with
// FOR UPDATE, so rows are deduplicated here after locking.
func (r *Repository) ExpiredHoldBookings(ctx context.Context, tx pgx.Tx, facilityID *uuid.UUID, now time.Time) ([]string, error) {
	query := `
		SELECT booking_code FROM slots
		WHERE status = 'HELD' AND hold_deadline <= $1 AND booking_code IS NOT NULL`
	args := []any{now}
	if facilityID != nil {
		query += ` AND facility_id = $2`
		args = append(args, *facilityID)
	}
	rows, err := tx.Query(ctx, query+` FOR UPDATE`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ListSlots is the availability read for one facility and date.
func (r *Repository) ListSlots(ctx context.Context, facilityID uuid.UUID, date string) ([]domain.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, facility_id, court_id, date, start_time, end_time, status, booking_code, hold_deadline
		FROM slots
		WHERE facility_id = $1 AND date = $2 AND status <> 'CANCELLED'
		ORDER BY start_time, court_id
	`, facilityID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		var code *string
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.CourtID, &s.Date, &s.StartTime, &s.EndTime, &s.Status, &code, &s.HoldDeadline); err != nil {
			return nil, err
		}
		if code != nil {
			s.BookingCode = *code
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
