package pricing

import (
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
)

// Quote is the full monetary outcome of one reservation attempt. All amounts
// are integer minor currency units; SlotPrices sums exactly to FinalTotal.
type Quote struct {
	BaseTotal   int64
	Discount    int64
	FinalTotal  int64
	PlatformFee int64
	NetToOwner  int64
	SlotPrices  []int64
	PromotionID *uuid.UUID
}

// PromotionUsage is the derived usage state for a promotion at quote time,
// counted from non-cancelled bookings that reference it.
type PromotionUsage struct {
	Total  int
	ByUser int
}

// Compute prices slotCount windows at baseRate each, applies promo if given,
// and splits the platform fee. promo validation failures surface as
// *domain.PromotionError; the caller decides whether to retry without it.
func Compute(baseRate int64, slotCount int, ownerID uuid.UUID, customerID uuid.UUID,
	promo *domain.Promotion, usage PromotionUsage, feePercent int, now time.Time) (Quote, error) {

	if baseRate < 0 || slotCount <= 0 {
		panic("pricing: non-positive rate or slot count")
	}

	q := Quote{BaseTotal: baseRate * int64(slotCount)}

	if promo != nil {
		if err := validate(promo, q.BaseTotal, ownerID, customerID, usage, now); err != nil {
			return Quote{}, err
		}
		q.Discount = discountFor(promo, q.BaseTotal)
		q.PromotionID = &promo.ID
	}

	q.FinalTotal = q.BaseTotal - q.Discount
	q.PlatformFee = q.FinalTotal * int64(feePercent) / 100
	q.NetToOwner = q.FinalTotal - q.PlatformFee
	q.SlotPrices = splitEvenly(q.FinalTotal, slotCount)
	return q, nil
}

func validate(p *domain.Promotion, baseTotal int64, ownerID, customerID uuid.UUID,
	usage PromotionUsage, now time.Time) error {

	switch {
	case p.OwnerID != ownerID:
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionWrongShop}
	case p.Disabled:
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionDisabled}
	case now.Before(p.StartsAt):
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionNotStarted}
	case now.After(p.EndsAt):
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionExpired}
	case baseTotal < p.MinOrder:
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionBelowMinOrder}
	case p.UsageLimit > 0 && usage.Total >= p.UsageLimit:
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionLimitReached}
	case p.PerUserLimit > 0 && customerID != uuid.Nil && usage.ByUser >= p.PerUserLimit:
		return &domain.PromotionError{Code: p.Code, Reason: domain.PromotionUserLimit}
	}
	return nil
}

func discountFor(p *domain.Promotion, baseTotal int64) int64 {
	var d int64
	switch p.DiscountType {
	case domain.DiscountPercentage:
		pct := p.DiscountValue
		if pct > 100 {
			pct = 100
		}
		d = baseTotal * pct / 100
		if p.MaxDiscount > 0 && d > p.MaxDiscount {
			d = p.MaxDiscount
		}
	case domain.DiscountFixed:
		d = p.DiscountValue
	}
	if d > baseTotal {
		d = baseTotal
	}
	if d < 0 {
		d = 0
	}
	return d
}

// splitEvenly distributes total across n slots without drift: remainder cents
// go to the earliest slots, so the parts always sum back to total.
func splitEvenly(total int64, n int) []int64 {
	base := total / int64(n)
	rem := total % int64(n)
	prices := make([]int64, n)
	for i := range prices {
		prices[i] = base
		if int64(i) < rem {
			prices[i]++
		}
	}
	return prices
}
