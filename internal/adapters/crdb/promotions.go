package crdb

import (
	"context"
	"strings"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetPromotion(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, code string) (*domain.Promotion, error) {
	var p domain.Promotion
	err := tx.QueryRow(ctx, `
		SELECT id, owner_id, code, discount_type, discount_value, max_discount,
			min_order, usage_limit, per_user_limit, starts_at, ends_at, disabled
		FROM promotions WHERE owner_id = $1 AND code = $2
	`, ownerID, strings.ToUpper(code)).Scan(&p.ID, &p.OwnerID, &p.Code, &p.DiscountType, &p.DiscountValue,
		&p.MaxDiscount, &p.MinOrder, &p.UsageLimit, &p.PerUserLimit, &p.StartsAt, &p.EndsAt, &p.Disabled)
	if err == pgx.ErrNoRows {
		return nil, &domain.PromotionError{Code: code, Reason: domain.PromotionNotFound}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PromotionUsage derives usage counters from non-cancelled bookings that
// reference the promotion. No stored running counter to drift.
func (r *Repository) PromotionUsage(ctx context.Context, tx pgx.Tx, promoID, customerID uuid.UUID) (pricing.PromotionUsage, error) {
	var u pricing.PromotionUsage
	err := tx.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE customer_id = $2)
		FROM bookings
		WHERE promotion_id = $1 AND status <> 'CANCELLED'
	`, promoID, customerID).Scan(&u.Total, &u.ByUser)
	return u, err
}

func (r *Repository) CreatePromotion(ctx context.Context, p domain.Promotion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promotions (id, owner_id, code, discount_type, discount_value, max_discount,
			min_order, usage_limit, per_user_limit, starts_at, ends_at, disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.OwnerID, strings.ToUpper(p.Code), p.DiscountType, p.DiscountValue, p.MaxDiscount,
		p.MinOrder, p.UsageLimit, p.PerUserLimit, p.StartsAt, p.EndsAt, p.Disabled)
	return err
}
