package crdb

import (
	"context"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

func (r *Repository) CreateBooking(ctx context.Context, tx pgx.Tx, b domain.Booking, slots []domain.BookingSlot) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (code, facility_id, owner_id, customer_id, status, payment_status,
			base_total, discount, final_total, platform_fee, net_to_owner,
			promotion_id, checkin_token, hold_deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, b.Code, b.FacilityID, b.OwnerID, b.CustomerID, b.Status, b.PaymentStatus,
		b.BaseTotal, b.Discount, b.FinalTotal, b.PlatformFee, b.NetToOwner,
		b.PromotionID, b.CheckinToken, b.HoldDeadline, b.CreatedAt)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range slots {
		s := s
		g.Go(func() error {
			_, err := tx.Exec(gctx, `
				INSERT INTO booking_slots (booking_code, court_id, date, start_time, end_time, price, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, s.BookingCode, s.CourtID, s.Date, s.StartTime, s.EndTime, s.Price, s.Status)
			return err
		})
	}
	return g.Wait()
}

func (r *Repository) GetBooking(ctx context.Context, code string) (*domain.Booking, []domain.BookingSlot, error) {
	var b domain.Booking
	err := r.pool.QueryRow(ctx, `
		SELECT code, facility_id, owner_id, customer_id, status, payment_status,
			base_total, discount, final_total, platform_fee, net_to_owner,
			promotion_id, checkin_token, hold_deadline, created_at
		FROM bookings WHERE code = $1
	`, code).Scan(&b.Code, &b.FacilityID, &b.OwnerID, &b.CustomerID, &b.Status, &b.PaymentStatus,
		&b.BaseTotal, &b.Discount, &b.FinalTotal, &b.PlatformFee, &b.NetToOwner,
		&b.PromotionID, &b.CheckinToken, &b.HoldDeadline, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT booking_code, court_id, date, start_time, end_time, price, status
		FROM booking_slots WHERE booking_code = $1
		ORDER BY date, start_time
	`, code)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var slots []domain.BookingSlot
	for rows.Next() {
		var s domain.BookingSlot
		if err := rows.Scan(&s.BookingCode, &s.CourtID, &s.Date, &s.StartTime, &s.EndTime, &s.Price, &s.Status); err != nil {
			return nil, nil, err
		}
		slots = append(slots, s)
	}
	return &b, slots, rows.Err()
}

// GetBookingForUpdate locks the booking row for a status-changing workflow.
func (r *Repository) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.Booking, error) {
	var b domain.Booking
	err := tx.QueryRow(ctx, `
		SELECT code, facility_id, owner_id, customer_id, status, payment_status,
			base_total, discount, final_total, platform_fee, net_to_owner,
			promotion_id, checkin_token, hold_deadline, created_at
		FROM bookings WHERE code = $1
		FOR UPDATE
	`, code).Scan(&b.Code, &b.FacilityID, &b.OwnerID, &b.CustomerID, &b.Status, &b.PaymentStatus,
		&b.BaseTotal, &b.Discount, &b.FinalTotal, &b.PlatformFee, &b.NetToOwner,
		&b.PromotionID, &b.CheckinToken, &b.HoldDeadline, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) UpdateBookingStatus(ctx context.Context, tx pgx.Tx, code string, status domain.BookingStatus) error {
	result, err := tx.Exec(ctx, `
		UPDATE bookings SET status = $2 WHERE code = $1
	`, code, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, code string, status domain.PaymentStatus) error {
	result, err := tx.Exec(ctx, `
		UPDATE bookings SET payment_status = $2 WHERE code = $1
	`, code, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CancelExpiredBookings flips the named bookings to CANCELLED and marks their
// unpaid intents failed. A paid booking never sits in HELD, so payment status
// here can only move pending -> failed.
func (r *Repository) CancelExpiredBookings(ctx context.Context, tx pgx.Tx, codes []string) error {
	_, err := tx.Exec(ctx, `
		UPDATE bookings SET status = 'CANCELLED',
			payment_status = CASE WHEN payment_status = 'PAID' THEN payment_status ELSE 'FAILED' END
		WHERE code = ANY($1)
	`, codes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE booking_slots SET status = 'CANCELLED' WHERE booking_code = ANY($1)
	`, codes)
	return err
}

func (r *Repository) CancelBookingSlots(ctx context.Context, tx pgx.Tx, code string) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_slots SET status = 'CANCELLED' WHERE booking_code = $1
	`, code)
	return err
}
