package booking

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CancellationResult struct {
	BookingCode    string
	RefundAmount   int64
	PenaltyPercent int
}

// RequestCancellation opens the approval workflow: the booking parks in
// CANCELLATION_PENDING and the facility owner receives a single-use decision
// token embedded in approve/reject links.
func (s *Service) RequestCancellation(ctx context.Context, code string, customerID uuid.UUID, reason string) (*CancellationResult, error) {
	b, slots, err := s.store.GetBooking(ctx, code)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	if err := s.checkNotice(slots); err != nil {
		return nil, err
	}

	now := s.now()
	req := domain.CancellationRequest{
		ID:            uuid.New(),
		BookingCode:   code,
		CustomerID:    customerID,
		Reason:        reason,
		DecisionToken: uuid.NewString(),
		CreatedAt:     now,
	}

	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		b, err := s.store.GetBookingForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return domain.ErrAlreadyCompleted
		}
		if !domain.CanTransition(b.Status, domain.BookingCancellationPending) {
			return domain.ErrDuplicateRequest
		}
		pending, err := s.store.HasPendingRequest(ctx, tx, code)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrDuplicateRequest
		}

		if b.PaymentStatus == domain.PaymentPaid {
			req.RefundAmount = b.FinalTotal * int64(s.cfg.RefundPercent) / 100
			req.PenaltyPercent = s.cfg.PenaltyPercent
		}
		req.PreviousStatus = b.Status

		if err := s.store.CreateCancellationRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := s.store.UpdateBookingStatus(ctx, tx, code, domain.BookingCancellationPending); err != nil {
			return err
		}

		return s.enqueueNotification(ctx, tx, b.OwnerID, "cancellation.requested", code, map[string]interface{}{
			"reason":        reason,
			"refund_amount": req.RefundAmount,
			"approve_url":   s.decisionURL(req.DecisionToken, "approve"),
			"reject_url":    s.decisionURL(req.DecisionToken, "reject"),
		})
	})
	if err != nil {
		return nil, err
	}

	return &CancellationResult{
		BookingCode:    code,
		RefundAmount:   req.RefundAmount,
		PenaltyPercent: req.PenaltyPercent,
	}, nil
}

type DecisionResult struct {
	BookingCode  string
	Decision     string
	RefundAmount int64
}

// Decide consumes the owner's decision token exactly once. Approve cancels
// the booking, frees its slots and claws back the owner's credited share of
// the refund; reject restores the booking to its pre-request status.
func (s *Service) Decide(ctx context.Context, token string, approve bool) (*DecisionResult, error) {
	var (
		req      *domain.CancellationRequest
		b        *domain.Booking
		decision = "rejected"
	)
	if approve {
		decision = "approved"
	}

	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		req, err = s.store.GetPendingRequestByToken(ctx, tx, token)
		if err != nil {
			return err
		}
		b, err = s.store.GetBookingForUpdate(ctx, tx, req.BookingCode)
		if err != nil {
			return err
		}

		if !approve {
			if err := s.store.UpdateBookingStatus(ctx, tx, b.Code, req.PreviousStatus); err != nil {
				return err
			}
			if err := s.store.ResolveRequest(ctx, tx, req.ID, domain.RequestRejected, s.now()); err != nil {
				return err
			}
			return s.notifyDecision(ctx, tx, b, req, decision)
		}

		if err := s.store.UpdateBookingStatus(ctx, tx, b.Code, domain.BookingCancelled); err != nil {
			return err
		}
		if err := s.store.CancelBookingSlots(ctx, tx, b.Code); err != nil {
			return err
		}
		if err := s.store.FreeSlotsForBookings(ctx, tx, []string{b.Code}); err != nil {
			return err
		}

		// Proportional clawback of what the owner was already credited.
		// A fully discounted booking (finalTotal == 0) refunds nothing and
		// debits nothing.
		if b.PaymentStatus == domain.PaymentPaid && req.RefundAmount > 0 && b.FinalTotal > 0 {
			if err := s.store.UpdatePaymentStatus(ctx, tx, b.Code, domain.PaymentRefunded); err != nil {
				return err
			}
			clawback := b.NetToOwner * req.RefundAmount / b.FinalTotal
			if err := s.store.ApplyWalletEntry(ctx, tx, crdb.WalletEntry{
				ID:          uuid.New(),
				OwnerID:     b.OwnerID,
				BookingCode: b.Code,
				Amount:      -clawback,
				Kind:        "refund_clawback",
				CreatedAt:   s.now(),
			}); err != nil {
				return err
			}
		}

		if err := s.store.ResolveRequest(ctx, tx, req.ID, domain.RequestApproved, s.now()); err != nil {
			return err
		}
		return s.notifyDecision(ctx, tx, b, req, decision)
	})
	if err != nil {
		return nil, err
	}

	if approve {
		if err := s.cart.RemoveForBookings(ctx, []string{b.Code}); err != nil {
			s.logger.WithField("booking_code", b.Code).Warn("cart cleanup after cancellation failed", err)
		}
	}
	if err := s.audit.LogCancellationDecision(ctx, *req, approve); err != nil {
		s.logger.WithField("booking_code", b.Code).Warn("audit log failed", err)
	}

	refund := int64(0)
	if approve {
		refund = req.RefundAmount
	}
	return &DecisionResult{BookingCode: b.Code, Decision: decision, RefundAmount: refund}, nil
}

func (s *Service) notifyDecision(ctx context.Context, tx pgx.Tx, b *domain.Booking, req *domain.CancellationRequest, decision string) error {
	if b.CustomerID == uuid.Nil {
		return nil
	}
	return s.enqueueNotification(ctx, tx, b.CustomerID, "cancellation.decided", b.Code, map[string]interface{}{
		"decision":      decision,
		"refund_amount": req.RefundAmount,
	})
}

// checkNotice rejects requests landing closer to the earliest slot than the
// configured safety window.
func (s *Service) checkNotice(slots []domain.BookingSlot) error {
	earliest := time.Time{}
	for _, slot := range slots {
		start, err := (domain.Window{Date: slot.Date, StartTime: slot.StartTime, EndTime: slot.EndTime}).StartAt()
		if err != nil {
			continue
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	if !earliest.IsZero() && earliest.Sub(s.now()) < s.cfg.CancelNotice {
		return domain.ErrTooLateToCancel
	}
	return nil
}

func (s *Service) decisionURL(token, action string) string {
	return s.cfg.DecisionBaseURL + "?token=" + token + "&action=" + action
}
