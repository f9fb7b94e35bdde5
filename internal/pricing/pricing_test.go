package pricing

import (
	"testing"
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerID    = uuid.New()
	customerID = uuid.New()
	now        = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

func activePromo(t domain.DiscountType, value int64) *domain.Promotion {
	return &domain.Promotion{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Code:          "SPRING",
		DiscountType:  t,
		DiscountValue: value,
		StartsAt:      now.Add(-24 * time.Hour),
		EndsAt:        now.Add(24 * time.Hour),
	}
}

func TestCompute_NoPromotion(t *testing.T) {
	q, err := Compute(100_000, 3, ownerID, customerID, nil, PromotionUsage{}, 10, now)
	require.NoError(t, err)

	assert.Equal(t, int64(300_000), q.BaseTotal)
	assert.Equal(t, int64(0), q.Discount)
	assert.Equal(t, int64(300_000), q.FinalTotal)
	assert.Equal(t, int64(30_000), q.PlatformFee)
	assert.Equal(t, int64(270_000), q.NetToOwner)
}

func TestCompute_FixedDiscountExample(t *testing.T) {
	promo := activePromo(domain.DiscountFixed, 50_000)
	promo.MinOrder = 200_000

	q, err := Compute(100_000, 3, ownerID, customerID, promo, PromotionUsage{}, 10, now)
	require.NoError(t, err)

	assert.Equal(t, int64(300_000), q.BaseTotal)
	assert.Equal(t, int64(50_000), q.Discount)
	assert.Equal(t, int64(250_000), q.FinalTotal)

	var sum int64
	for _, p := range q.SlotPrices {
		sum += p
	}
	assert.Equal(t, q.FinalTotal, sum)
	// 250_000 / 3 leaves remainder 1; the earliest slot absorbs it.
	assert.Equal(t, []int64{83_334, 83_333, 83_333}, q.SlotPrices)
}

func TestCompute_SlotPricesAlwaysSumToFinal(t *testing.T) {
	for count := 1; count <= 7; count++ {
		q, err := Compute(99_999, count, ownerID, customerID, nil, PromotionUsage{}, 10, now)
		require.NoError(t, err)

		var sum int64
		for _, p := range q.SlotPrices {
			sum += p
		}
		assert.Equal(t, q.FinalTotal, sum, "count=%d", count)
		assert.Equal(t, q.BaseTotal, q.FinalTotal+q.Discount)
	}
}

func TestCompute_PercentageCappedAt100(t *testing.T) {
	promo := activePromo(domain.DiscountPercentage, 250)

	q, err := Compute(100_000, 2, ownerID, customerID, promo, PromotionUsage{}, 10, now)
	require.NoError(t, err)

	assert.Equal(t, q.BaseTotal, q.Discount)
	assert.Equal(t, int64(0), q.FinalTotal)
}

func TestCompute_PercentageMaxDiscountCap(t *testing.T) {
	promo := activePromo(domain.DiscountPercentage, 50)
	promo.MaxDiscount = 30_000

	q, err := Compute(100_000, 2, ownerID, customerID, promo, PromotionUsage{}, 10, now)
	require.NoError(t, err)

	assert.Equal(t, int64(30_000), q.Discount)
}

func TestCompute_FixedDiscountNeverExceedsBase(t *testing.T) {
	promo := activePromo(domain.DiscountFixed, 500_000)

	q, err := Compute(100_000, 1, ownerID, customerID, promo, PromotionUsage{}, 10, now)
	require.NoError(t, err)

	assert.Equal(t, int64(100_000), q.Discount)
	assert.Equal(t, int64(0), q.FinalTotal)
}

func TestCompute_PromotionFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *domain.Promotion)
		usage  PromotionUsage
		actor  uuid.UUID
		reason domain.PromotionReason
	}{
		{"wrong owner", func(p *domain.Promotion) { p.OwnerID = uuid.New() }, PromotionUsage{}, customerID, domain.PromotionWrongShop},
		{"disabled", func(p *domain.Promotion) { p.Disabled = true }, PromotionUsage{}, customerID, domain.PromotionDisabled},
		{"not started", func(p *domain.Promotion) { p.StartsAt = now.Add(time.Hour) }, PromotionUsage{}, customerID, domain.PromotionNotStarted},
		{"expired", func(p *domain.Promotion) { p.EndsAt = now.Add(-time.Hour) }, PromotionUsage{}, customerID, domain.PromotionExpired},
		{"below min order", func(p *domain.Promotion) { p.MinOrder = 1_000_000 }, PromotionUsage{}, customerID, domain.PromotionBelowMinOrder},
		{"global limit", func(p *domain.Promotion) { p.UsageLimit = 5 }, PromotionUsage{Total: 5}, customerID, domain.PromotionLimitReached},
		{"per-user limit", func(p *domain.Promotion) { p.PerUserLimit = 1 }, PromotionUsage{ByUser: 1}, customerID, domain.PromotionUserLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			promo := activePromo(domain.DiscountFixed, 10_000)
			tc.mutate(promo)

			_, err := Compute(100_000, 2, ownerID, tc.actor, promo, tc.usage, 10, now)
			var perr *domain.PromotionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.reason, perr.Reason)
		})
	}
}

func TestCompute_PerUserLimitSkippedForGuests(t *testing.T) {
	promo := activePromo(domain.DiscountFixed, 10_000)
	promo.PerUserLimit = 1

	_, err := Compute(100_000, 2, ownerID, uuid.Nil, promo, PromotionUsage{ByUser: 3}, 10, now)
	assert.NoError(t, err)
}
