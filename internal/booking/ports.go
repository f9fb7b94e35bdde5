package booking

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store is the transactional storage surface the workflows run against.
// *crdb.Repository is the production implementation; tests substitute fakes.
type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error

	LockWindow(ctx context.Context, tx pgx.Tx, facilityID uuid.UUID, w domain.Window) ([]domain.Slot, error)
	HoldSlot(ctx context.Context, tx pgx.Tx, existing *domain.Slot, facilityID, courtID uuid.UUID, w domain.Window, bookingCode string, deadline time.Time) error
	ConfirmSlots(ctx context.Context, tx pgx.Tx, bookingCode string) error
	FreeSlotsForBookings(ctx context.Context, tx pgx.Tx, bookingCodes []string) error
	ExpiredHoldBookings(ctx context.Context, tx pgx.Tx, facilityID *uuid.UUID, now time.Time) ([]string, error)
	ListSlots(ctx context.Context, facilityID uuid.UUID, date string) ([]domain.Slot, error)

	CreateBooking(ctx context.Context, tx pgx.Tx, b domain.Booking, slots []domain.BookingSlot) error
	GetBooking(ctx context.Context, code string) (*domain.Booking, []domain.BookingSlot, error)
	GetBookingForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, tx pgx.Tx, code string, status domain.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, code string, status domain.PaymentStatus) error
	CancelExpiredBookings(ctx context.Context, tx pgx.Tx, codes []string) error
	CancelBookingSlots(ctx context.Context, tx pgx.Tx, code string) error

	GetPromotion(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, code string) (*domain.Promotion, error)
	PromotionUsage(ctx context.Context, tx pgx.Tx, promoID, customerID uuid.UUID) (pricing.PromotionUsage, error)

	CreateCancellationRequest(ctx context.Context, tx pgx.Tx, req domain.CancellationRequest) error
	GetPendingRequestByToken(ctx context.Context, tx pgx.Tx, token string) (*domain.CancellationRequest, error)
	HasPendingRequest(ctx context.Context, tx pgx.Tx, bookingCode string) (bool, error)
	ResolveRequest(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, decidedAt time.Time) error

	CreatePaymentIntent(ctx context.Context, tx pgx.Tx, intent domain.PaymentIntent) error
	GetIntentForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error)
	MarkIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error

	ApplyWalletEntry(ctx context.Context, tx pgx.Tx, entry crdb.WalletEntry) error
	InsertNotification(ctx context.Context, tx pgx.Tx, rec crdb.NotificationRecord) error
}

// Catalog resolves facility metadata (owner, base rate, courts).
type Catalog interface {
	GetFacility(ctx context.Context, id uuid.UUID) (*domain.Facility, error)
}

// CartTracker mirrors hold deadlines on the customer-facing surface.
// Best-effort: failures are logged, never fail the owning workflow.
type CartTracker interface {
	Upsert(ctx context.Context, customerID, bookingCode string, deadline time.Time) error
	RemoveForBookings(ctx context.Context, bookingCodes []string) error
}

// Audit records lifecycle events out of band. Best-effort.
type Audit interface {
	LogReservation(ctx context.Context, b domain.Booking) error
	LogCancellationDecision(ctx context.Context, req domain.CancellationRequest, approved bool) error
}
