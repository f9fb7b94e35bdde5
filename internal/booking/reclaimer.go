package booking

import (
	"context"

	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Sweep reclaims expired holds: the owning bookings are cancelled, their cart
// entries dropped, and the slots handed back. Scoped to one facility when
// facilityID is set (the lazy read/write path), unscoped for the periodic
// worker. Safe to run concurrently with itself and with Reserve; both
// serialize on the slot rows.
func (s *Service) Sweep(ctx context.Context, facilityID *uuid.UUID) error {
	var codes []string
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		codes, err = s.store.ExpiredHoldBookings(ctx, tx, facilityID, s.now())
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		if err := s.store.CancelExpiredBookings(ctx, tx, codes); err != nil {
			return err
		}
		return s.store.FreeSlotsForBookings(ctx, tx, codes)
	})
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}

	if err := s.cart.RemoveForBookings(ctx, codes); err != nil {
		s.logger.Warn("cart cleanup after reclaim failed", err)
	}
	observability.HoldsReclaimedTotal.Add(float64(len(codes)))
	s.logger.WithField("count", len(codes)).Info("reclaimed expired holds")
	return nil
}
