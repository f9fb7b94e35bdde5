package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/config"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/arenaops/court-reservations/internal/pricing"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	store   Store
	catalog Catalog
	cart    CartTracker
	audit   Audit
	logger  observability.Logger
	cfg     *config.Config

	now func() time.Time
}

func NewService(store Store, catalog Catalog, cart CartTracker, audit Audit, logger observability.Logger, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		cart:    cart,
		audit:   audit,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

type ReserveRequest struct {
	FacilityID    uuid.UUID
	Windows       []domain.Window
	CustomerID    uuid.UUID // uuid.Nil for guests
	PromoCode     string
	CourtID       *uuid.UUID // pin a specific court, optional
	PaymentMethod string
}

type ReserveResult struct {
	BookingCode  string
	BaseTotal    int64
	Discount     int64
	FinalTotal   int64
	HoldDeadline time.Time
	IntentID     uuid.UUID
	Slots        []domain.BookingSlot
}

// Reserve runs the whole reservation as one transaction: lock windows, create
// the booking with per-slot prices, place the hold, open a payment intent.
// Any failure rolls the whole unit back.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	windows, err := domain.NormalizeWindows(req.Windows)
	if err != nil {
		return nil, err
	}

	// Lazy reclaim so an abandoned hold never masquerades as demand.
	if err := s.Sweep(ctx, &req.FacilityID); err != nil {
		s.logger.WithField("facility_id", req.FacilityID).Error("pre-reserve sweep failed", err)
	}

	facility, err := s.catalog.GetFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	deadline := now.Add(s.cfg.HoldTTL)
	b := domain.NewBooking(facility.ID, facility.OwnerID, req.CustomerID, deadline)

	var result *ReserveResult
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		var promo *domain.Promotion
		var usage pricing.PromotionUsage
		if req.PromoCode != "" {
			promo, err = s.store.GetPromotion(ctx, tx, facility.OwnerID, req.PromoCode)
			if err != nil {
				return err
			}
			usage, err = s.store.PromotionUsage(ctx, tx, promo.ID, req.CustomerID)
			if err != nil {
				return err
			}
		}

		quote, err := pricing.Compute(facility.BaseRate, len(windows), facility.OwnerID, req.CustomerID,
			promo, usage, s.cfg.PlatformFeePercent, now)
		if err != nil {
			return err
		}

		b.BaseTotal = quote.BaseTotal
		b.Discount = quote.Discount
		b.FinalTotal = quote.FinalTotal
		b.PlatformFee = quote.PlatformFee
		b.NetToOwner = quote.NetToOwner
		b.PromotionID = quote.PromotionID

		type placement struct {
			window   domain.Window
			courtID  uuid.UUID
			existing *domain.Slot
		}
		placements := make([]placement, 0, len(windows))
		bookingSlots := make([]domain.BookingSlot, 0, len(windows))

		for i, w := range windows {
			rows, err := s.store.LockWindow(ctx, tx, facility.ID, w)
			if err != nil {
				return err
			}
			courtID, existing, ok := pickCourt(facility.Courts, rows, req.CourtID, now)
			if !ok {
				return &domain.ConflictError{Date: w.Date, StartTime: w.StartTime, EndTime: w.EndTime}
			}
			placements = append(placements, placement{window: w, courtID: courtID, existing: existing})
			bookingSlots = append(bookingSlots, domain.BookingSlot{
				BookingCode: b.Code,
				CourtID:     courtID,
				Date:        w.Date,
				StartTime:   w.StartTime,
				EndTime:     w.EndTime,
				Price:       quote.SlotPrices[i],
				Status:      domain.SlotHeld,
			})
		}

		if err := s.store.CreateBooking(ctx, tx, b, bookingSlots); err != nil {
			return err
		}
		for _, p := range placements {
			if err := s.store.HoldSlot(ctx, tx, p.existing, facility.ID, p.courtID, p.window, b.Code, deadline); err != nil {
				return err
			}
		}

		intent := domain.PaymentIntent{
			ID:          uuid.New(),
			BookingCode: b.Code,
			Amount:      b.FinalTotal,
			Method:      req.PaymentMethod,
			CreatedAt:   now,
		}
		if err := s.store.CreatePaymentIntent(ctx, tx, intent); err != nil {
			return err
		}

		if req.CustomerID != uuid.Nil {
			if err := s.enqueueNotification(ctx, tx, req.CustomerID, "booking.reserved", b.Code, map[string]interface{}{
				"final_total":   b.FinalTotal,
				"hold_deadline": deadline.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}

		result = &ReserveResult{
			BookingCode:  b.Code,
			BaseTotal:    b.BaseTotal,
			Discount:     b.Discount,
			FinalTotal:   b.FinalTotal,
			HoldDeadline: deadline,
			IntentID:     intent.ID,
			Slots:        bookingSlots,
		}
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			observability.SlotConflictsTotal.Inc()
			observability.ReservationsTotal.WithLabelValues("conflict").Inc()
		} else {
			observability.ReservationsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	// Guests get no countdown entry; the cart mirror is best-effort.
	if req.CustomerID != uuid.Nil {
		if err := s.cart.Upsert(ctx, req.CustomerID.String(), b.Code, deadline); err != nil {
			s.logger.WithField("booking_code", b.Code).Warn("cart tracker upsert failed", err)
		}
	}
	if err := s.audit.LogReservation(ctx, b); err != nil {
		s.logger.WithField("booking_code", b.Code).Warn("audit log failed", err)
	}
	observability.ReservationsTotal.WithLabelValues("ok").Inc()

	return result, nil
}

// pickCourt decides which court serves a window, given the locked rows for
// that window. When no court is pinned the first free court in catalog order
// wins, assigned here at commit time. A row counts as blocking when it is
// booked or held with an unexpired deadline; an expired hold is reclaimable
// in place without waiting for the sweep.
func pickCourt(courts []uuid.UUID, rows []domain.Slot, pinned *uuid.UUID, now time.Time) (uuid.UUID, *domain.Slot, bool) {
	byCourt := make(map[uuid.UUID]*domain.Slot, len(rows))
	for i := range rows {
		byCourt[rows[i].CourtID] = &rows[i]
	}

	if pinned != nil {
		for _, id := range courts {
			if id != *pinned {
				continue
			}
			row := byCourt[id]
			if row != nil && blocking(row, now) {
				return uuid.Nil, nil, false
			}
			return id, row, true
		}
		return uuid.Nil, nil, false
	}

	for _, id := range courts {
		row := byCourt[id]
		if row == nil {
			return id, nil, true
		}
		if !blocking(row, now) {
			return id, row, true
		}
	}
	return uuid.Nil, nil, false
}

func blocking(s *domain.Slot, now time.Time) bool {
	switch s.Status {
	case domain.SlotBooked:
		return true
	case domain.SlotHeld:
		return s.HoldDeadline == nil || s.HoldDeadline.After(now)
	}
	return false
}

// Availability lists slot state for a facility and date, reclaiming expired
// holds first so callers never see phantom unavailability.
func (s *Service) Availability(ctx context.Context, facilityID uuid.UUID, date string) ([]domain.Slot, error) {
	if err := s.Sweep(ctx, &facilityID); err != nil {
		s.logger.WithField("facility_id", facilityID).Error("pre-read sweep failed", err)
	}
	return s.store.ListSlots(ctx, facilityID, date)
}

func (s *Service) GetBooking(ctx context.Context, code string) (*domain.Booking, []domain.BookingSlot, error) {
	return s.store.GetBooking(ctx, code)
}

// TransitionStatus applies one step of the booking status graph, rejecting
// anything outside the transition table.
func (s *Service) TransitionStatus(ctx context.Context, code string, next domain.BookingStatus) error {
	if !domain.ValidBookingStatus(next) {
		return domain.ErrInvalidTransition
	}
	return s.store.WithTx(ctx, func(tx pgx.Tx) error {
		b, err := s.store.GetBookingForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		if !domain.CanTransition(b.Status, next) {
			return domain.ErrInvalidTransition
		}
		return s.store.UpdateBookingStatus(ctx, tx, code, next)
	})
}

func (s *Service) enqueueNotification(ctx context.Context, tx pgx.Tx, recipient uuid.UUID, kind, bookingCode string, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.store.InsertNotification(ctx, tx, crdb.NotificationRecord{
		ID:          uuid.New(),
		Recipient:   recipient,
		Kind:        kind,
		BookingCode: bookingCode,
		Payload:     payload,
	})
}
