package outbox

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	"github.com/arenaops/court-reservations/internal/adapters/rabbit"
	"github.com/arenaops/court-reservations/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher relays committed notification records to the exchange. Delivery
// is best-effort per tick; a failed publish stays NEW and is retried on the
// next pass.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	records, err := p.repo.GetUnpublishedNotifications(ctx, 50)
	if err != nil {
		p.logger.Error("failed to fetch pending notifications", err)
		return
	}
	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.ID.String(),
			ContentType: "application/json",
			Headers:     amqp.Table{"recipient": rec.Recipient.String(), "booking_code": rec.BookingCode},
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.Kind, msg); err != nil {
			observability.NotifyFailuresTotal.Inc()
			p.logger.WithField("notification_id", rec.ID).Error("publish failed", err)
			continue
		}
		if err := p.repo.MarkNotificationPublished(ctx, rec.ID, time.Now()); err != nil {
			p.logger.WithField("notification_id", rec.ID).Error("mark published failed", err)
		}
	}
}
