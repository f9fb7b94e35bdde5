package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/arenaops/court-reservations/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type nopLogger struct{}

func (nopLogger) Info(args ...interface{})  {}
func (nopLogger) Error(args ...interface{}) {}
func (nopLogger) Debug(args ...interface{}) {}
func (nopLogger) Warn(args ...interface{})  {}
func (n nopLogger) WithField(key string, value interface{}) observability.Logger {
	return n
}

// fakeStore is an in-memory Store with transaction rollback: WithTx snapshots
// state and restores it when fn fails, mirroring the relational rollback the
// repository provides.
type fakeStore struct {
	mu sync.Mutex

	slots         map[uuid.UUID]*domain.Slot
	bookings      map[string]*domain.Booking
	bookingSlots  map[string][]domain.BookingSlot
	promos        map[string]*domain.Promotion
	requests      map[uuid.UUID]*domain.CancellationRequest
	intents       map[uuid.UUID]*domain.PaymentIntent
	walletEntries []crdb.WalletEntry
	balances      map[uuid.UUID]int64
	notifications []crdb.NotificationRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots:        map[uuid.UUID]*domain.Slot{},
		bookings:     map[string]*domain.Booking{},
		bookingSlots: map[string][]domain.BookingSlot{},
		promos:       map[string]*domain.Promotion{},
		requests:     map[uuid.UUID]*domain.CancellationRequest{},
		intents:      map[uuid.UUID]*domain.PaymentIntent{},
		balances:     map[uuid.UUID]int64{},
	}
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	for k, v := range f.slots {
		c := *v
		s.slots[k] = &c
	}
	for k, v := range f.bookings {
		c := *v
		s.bookings[k] = &c
	}
	for k, v := range f.bookingSlots {
		s.bookingSlots[k] = append([]domain.BookingSlot(nil), v...)
	}
	for k, v := range f.promos {
		c := *v
		s.promos[k] = &c
	}
	for k, v := range f.requests {
		c := *v
		s.requests[k] = &c
	}
	for k, v := range f.intents {
		c := *v
		s.intents[k] = &c
	}
	s.walletEntries = append([]crdb.WalletEntry(nil), f.walletEntries...)
	for k, v := range f.balances {
		s.balances[k] = v
	}
	s.notifications = append([]crdb.NotificationRecord(nil), f.notifications...)
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.slots = s.slots
	f.bookings = s.bookings
	f.bookingSlots = s.bookingSlots
	f.promos = s.promos
	f.requests = s.requests
	f.intents = s.intents
	f.walletEntries = s.walletEntries
	f.balances = s.balances
	f.notifications = s.notifications
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func (f *fakeStore) LockWindow(ctx context.Context, tx pgx.Tx, facilityID uuid.UUID, w domain.Window) ([]domain.Slot, error) {
	var out []domain.Slot
	for _, s := range f.slots {
		if s.FacilityID == facilityID && s.Date == w.Date && s.StartTime == w.StartTime &&
			s.EndTime == w.EndTime && s.Status != domain.SlotCancelled {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) HoldSlot(ctx context.Context, tx pgx.Tx, existing *domain.Slot, facilityID, courtID uuid.UUID, w domain.Window, bookingCode string, deadline time.Time) error {
	if existing != nil {
		s := f.slots[existing.ID]
		s.Status = domain.SlotHeld
		s.BookingCode = bookingCode
		d := deadline
		s.HoldDeadline = &d
		return nil
	}
	id := uuid.New()
	d := deadline
	f.slots[id] = &domain.Slot{
		ID: id, FacilityID: facilityID, CourtID: courtID,
		Date: w.Date, StartTime: w.StartTime, EndTime: w.EndTime,
		Status: domain.SlotHeld, BookingCode: bookingCode, HoldDeadline: &d,
	}
	return nil
}

func (f *fakeStore) ConfirmSlots(ctx context.Context, tx pgx.Tx, bookingCode string) error {
	for _, s := range f.slots {
		if s.BookingCode == bookingCode && s.Status == domain.SlotHeld {
			s.Status = domain.SlotBooked
			s.HoldDeadline = nil
		}
	}
	return nil
}

func (f *fakeStore) FreeSlotsForBookings(ctx context.Context, tx pgx.Tx, codes []string) error {
	for _, s := range f.slots {
		for _, code := range codes {
			if s.BookingCode == code {
				s.Status = domain.SlotAvailable
				s.BookingCode = ""
				s.HoldDeadline = nil
			}
		}
	}
	return nil
}

func (f *fakeStore) ExpiredHoldBookings(ctx context.Context, tx pgx.Tx, facilityID *uuid.UUID, now time.Time) ([]string, error) {
	seen := map[string]bool{}
	var codes []string
	for _, s := range f.slots {
		if s.Status != domain.SlotHeld || s.BookingCode == "" || s.HoldDeadline == nil || s.HoldDeadline.After(now) {
			continue
		}
		if facilityID != nil && s.FacilityID != *facilityID {
			continue
		}
		if !seen[s.BookingCode] {
			seen[s.BookingCode] = true
			codes = append(codes, s.BookingCode)
		}
	}
	return codes, nil
}

func (f *fakeStore) ListSlots(ctx context.Context, facilityID uuid.UUID, date string) ([]domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Slot
	for _, s := range f.slots {
		if s.FacilityID == facilityID && s.Date == date && s.Status != domain.SlotCancelled {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateBooking(ctx context.Context, tx pgx.Tx, b domain.Booking, slots []domain.BookingSlot) error {
	c := b
	f.bookings[b.Code] = &c
	f.bookingSlots[b.Code] = append([]domain.BookingSlot(nil), slots...)
	return nil
}

func (f *fakeStore) GetBooking(ctx context.Context, code string) (*domain.Booking, []domain.BookingSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[code]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	c := *b
	return &c, append([]domain.BookingSlot(nil), f.bookingSlots[code]...), nil
}

func (f *fakeStore) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.Booking, error) {
	b, ok := f.bookings[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (f *fakeStore) UpdateBookingStatus(ctx context.Context, tx pgx.Tx, code string, status domain.BookingStatus) error {
	b, ok := f.bookings[code]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeStore) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, code string, status domain.PaymentStatus) error {
	b, ok := f.bookings[code]
	if !ok {
		return domain.ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (f *fakeStore) CancelExpiredBookings(ctx context.Context, tx pgx.Tx, codes []string) error {
	for _, code := range codes {
		if b, ok := f.bookings[code]; ok {
			b.Status = domain.BookingCancelled
			if b.PaymentStatus != domain.PaymentPaid {
				b.PaymentStatus = domain.PaymentFailed
			}
		}
		slots := f.bookingSlots[code]
		for i := range slots {
			slots[i].Status = domain.SlotCancelled
		}
	}
	return nil
}

func (f *fakeStore) CancelBookingSlots(ctx context.Context, tx pgx.Tx, code string) error {
	slots := f.bookingSlots[code]
	for i := range slots {
		slots[i].Status = domain.SlotCancelled
	}
	return nil
}

func (f *fakeStore) GetPromotion(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, code string) (*domain.Promotion, error) {
	p, ok := f.promos[ownerID.String()+"|"+strings.ToUpper(code)]
	if !ok {
		return nil, &domain.PromotionError{Code: code, Reason: domain.PromotionNotFound}
	}
	c := *p
	return &c, nil
}

func (f *fakeStore) addPromotion(p domain.Promotion) {
	f.promos[p.OwnerID.String()+"|"+strings.ToUpper(p.Code)] = &p
}

func (f *fakeStore) PromotionUsage(ctx context.Context, tx pgx.Tx, promoID, customerID uuid.UUID) (pricing.PromotionUsage, error) {
	var u pricing.PromotionUsage
	for _, b := range f.bookings {
		if b.PromotionID != nil && *b.PromotionID == promoID && b.Status != domain.BookingCancelled {
			u.Total++
			if b.CustomerID == customerID {
				u.ByUser++
			}
		}
	}
	return u, nil
}

func (f *fakeStore) CreateCancellationRequest(ctx context.Context, tx pgx.Tx, req domain.CancellationRequest) error {
	c := req
	c.Status = domain.RequestPending
	f.requests[req.ID] = &c
	return nil
}

func (f *fakeStore) GetPendingRequestByToken(ctx context.Context, tx pgx.Tx, token string) (*domain.CancellationRequest, error) {
	for _, r := range f.requests {
		if r.DecisionToken == token {
			if r.Status != domain.RequestPending {
				return nil, domain.ErrAlreadyProcessed
			}
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) HasPendingRequest(ctx context.Context, tx pgx.Tx, bookingCode string) (bool, error) {
	for _, r := range f.requests {
		if r.BookingCode == bookingCode && r.Status == domain.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ResolveRequest(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, decidedAt time.Time) error {
	r, ok := f.requests[id]
	if !ok || r.Status != domain.RequestPending {
		return domain.ErrAlreadyProcessed
	}
	r.Status = status
	d := decidedAt
	r.DecidedAt = &d
	return nil
}

func (f *fakeStore) CreatePaymentIntent(ctx context.Context, tx pgx.Tx, intent domain.PaymentIntent) error {
	c := intent
	c.Status = "PENDING"
	f.intents[intent.ID] = &c
	return nil
}

func (f *fakeStore) GetIntentForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error) {
	i, ok := f.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *i
	return &c, nil
}

func (f *fakeStore) MarkIntent(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	i, ok := f.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	i.Status = status
	return nil
}

func (f *fakeStore) ApplyWalletEntry(ctx context.Context, tx pgx.Tx, entry crdb.WalletEntry) error {
	f.walletEntries = append(f.walletEntries, entry)
	f.balances[entry.OwnerID] += entry.Amount
	return nil
}

func (f *fakeStore) InsertNotification(ctx context.Context, tx pgx.Tx, rec crdb.NotificationRecord) error {
	f.notifications = append(f.notifications, rec)
	return nil
}

type fakeCatalog struct {
	facilities map[uuid.UUID]*domain.Facility
}

func (f *fakeCatalog) GetFacility(ctx context.Context, id uuid.UUID) (*domain.Facility, error) {
	fac, ok := f.facilities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return fac, nil
}

type fakeCart struct {
	mu       sync.Mutex
	upserts  map[string]time.Time // booking code -> deadline
	removals []string
}

func newFakeCart() *fakeCart {
	return &fakeCart{upserts: map[string]time.Time{}}
}

func (f *fakeCart) Upsert(ctx context.Context, customerID, bookingCode string, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[bookingCode] = deadline
	return nil
}

func (f *fakeCart) RemoveForBookings(ctx context.Context, codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		delete(f.upserts, code)
	}
	f.removals = append(f.removals, codes...)
	return nil
}

type fakeAudit struct {
	events []string
}

func (f *fakeAudit) LogReservation(ctx context.Context, b domain.Booking) error {
	f.events = append(f.events, "booking.reserved:"+b.Code)
	return nil
}

func (f *fakeAudit) LogCancellationDecision(ctx context.Context, req domain.CancellationRequest, approved bool) error {
	f.events = append(f.events, "cancellation.decided:"+req.BookingCode)
	return nil
}
