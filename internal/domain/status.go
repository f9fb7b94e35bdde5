package domain

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotHeld      SlotStatus = "HELD"
	SlotBooked    SlotStatus = "BOOKED"
	SlotCancelled SlotStatus = "CANCELLED"
)

type BookingStatus string

const (
	BookingPending             BookingStatus = "PENDING"
	BookingConfirmed           BookingStatus = "CONFIRMED"
	BookingCompleted           BookingStatus = "COMPLETED"
	BookingCancelled           BookingStatus = "CANCELLED"
	BookingCancellationPending BookingStatus = "CANCELLATION_PENDING"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// bookingTransitions is the closed transition graph. Anything not listed is
// rejected, including self-transitions.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:             {BookingConfirmed, BookingCancelled, BookingCancellationPending},
	BookingConfirmed:           {BookingCompleted, BookingCancellationPending},
	BookingCancellationPending: {BookingCancelled, BookingPending, BookingConfirmed},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingCancellationPending:
		return true
	}
	return false
}
