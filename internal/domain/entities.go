package domain

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one bookable window of one court. Rows are created lazily on the
// first reservation attempt for a window, so absence means available.
type Slot struct {
	ID           uuid.UUID
	FacilityID   uuid.UUID
	CourtID      uuid.UUID
	Date         string // YYYY-MM-DD
	StartTime    string // HH:MM
	EndTime      string // HH:MM
	Status       SlotStatus
	BookingCode  string
	HoldDeadline *time.Time
}

type Booking struct {
	Code          string
	FacilityID    uuid.UUID
	OwnerID       uuid.UUID
	CustomerID    uuid.UUID // uuid.Nil for guests
	Status        BookingStatus
	PaymentStatus PaymentStatus

	BaseTotal   int64 // minor currency units
	Discount    int64
	FinalTotal  int64
	PlatformFee int64
	NetToOwner  int64

	PromotionID  *uuid.UUID
	CheckinToken string
	HoldDeadline time.Time
	CreatedAt    time.Time
}

// BookingSlot carries the per-window share of the booking's final total.
type BookingSlot struct {
	BookingCode string
	CourtID     uuid.UUID
	Date        string
	StartTime   string
	EndTime     string
	Price       int64
	Status      SlotStatus
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type Promotion struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Code          string
	DiscountType  DiscountType
	DiscountValue int64 // percent for PERCENTAGE, minor units for FIXED
	MaxDiscount   int64 // 0 means uncapped
	MinOrder      int64
	UsageLimit    int   // 0 means unlimited
	PerUserLimit  int   // 0 means unlimited
	StartsAt      time.Time
	EndsAt        time.Time
	Disabled      bool
}

type CancellationRequest struct {
	ID             uuid.UUID
	BookingCode    string
	CustomerID     uuid.UUID
	Reason         string
	RefundAmount   int64
	PenaltyPercent int
	DecisionToken  string
	PreviousStatus BookingStatus
	Status         RequestStatus
	CreatedAt      time.Time
	DecidedAt      *time.Time
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

type PaymentIntent struct {
	ID          uuid.UUID
	BookingCode string
	Amount      int64
	Method      string
	Status      string // PENDING, PAID, FAILED
	CreatedAt   time.Time
}

// Facility is catalog metadata resolved from the external provider.
type Facility struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Name     string
	BaseRate int64 // minor units per slot
	Courts   []uuid.UUID
}

func NewBooking(facilityID, ownerID, customerID uuid.UUID, holdDeadline time.Time) Booking {
	return Booking{
		Code:          "BK-" + uuid.NewString(),
		FacilityID:    facilityID,
		OwnerID:       ownerID,
		CustomerID:    customerID,
		Status:        BookingPending,
		PaymentStatus: PaymentPending,
		CheckinToken:  uuid.NewString(),
		HoldDeadline:  holdDeadline,
		CreatedAt:     time.Now(),
	}
}
