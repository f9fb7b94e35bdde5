package booking

import (
	"context"
	"fmt"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettlePayment applies a gateway settlement callback. A booking only moves
// pending -> confirmed, and its slots held -> booked, when the intent amount
// matches the booking's final total exactly.
func (s *Service) SettlePayment(ctx context.Context, intentID uuid.UUID, succeeded bool) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		intent, err := s.store.GetIntentForUpdate(ctx, tx, intentID)
		if err != nil {
			return err
		}
		if intent.Status != "PENDING" {
			return domain.ErrAlreadyProcessed
		}
		b, err = s.store.GetBookingForUpdate(ctx, tx, intent.BookingCode)
		if err != nil {
			return err
		}

		if !succeeded {
			if err := s.store.MarkIntent(ctx, tx, intentID, "FAILED"); err != nil {
				return err
			}
			b.PaymentStatus = domain.PaymentFailed
			return s.store.UpdatePaymentStatus(ctx, tx, b.Code, domain.PaymentFailed)
		}

		if intent.Amount != b.FinalTotal {
			return fmt.Errorf("%w: intent amount %d does not match booking total %d",
				domain.ErrInvalidInput, intent.Amount, b.FinalTotal)
		}
		if !domain.CanTransition(b.Status, domain.BookingConfirmed) {
			return domain.ErrInvalidTransition
		}

		if err := s.store.MarkIntent(ctx, tx, intentID, "PAID"); err != nil {
			return err
		}
		if err := s.store.UpdatePaymentStatus(ctx, tx, b.Code, domain.PaymentPaid); err != nil {
			return err
		}
		if err := s.store.UpdateBookingStatus(ctx, tx, b.Code, domain.BookingConfirmed); err != nil {
			return err
		}
		if err := s.store.ConfirmSlots(ctx, tx, b.Code); err != nil {
			return err
		}
		// Credit the owner their share now so a later refund clawback
		// debits a balance that was actually credited.
		if err := s.store.ApplyWalletEntry(ctx, tx, crdb.WalletEntry{
			ID:          uuid.New(),
			OwnerID:     b.OwnerID,
			BookingCode: b.Code,
			Amount:      b.NetToOwner,
			Kind:        "settlement_credit",
			CreatedAt:   s.now(),
		}); err != nil {
			return err
		}
		b.PaymentStatus = domain.PaymentPaid
		b.Status = domain.BookingConfirmed

		if b.CustomerID != uuid.Nil {
			return s.enqueueNotification(ctx, tx, b.CustomerID, "booking.confirmed", b.Code, map[string]interface{}{
				"final_total": b.FinalTotal,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if succeeded {
		// The countdown is over either way once payment settles.
		if err := s.cart.RemoveForBookings(ctx, []string{b.Code}); err != nil {
			s.logger.WithField("booking_code", b.Code).Warn("cart cleanup after settlement failed", err)
		}
	}
	return b, nil
}
