package mongo

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	ActorID   uuid.UUID `bson:"actor_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, actorID uuid.UUID, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}

func (a *AuditLogger) LogReservation(ctx context.Context, b domain.Booking) error {
	data := map[string]interface{}{
		"booking_code":  b.Code,
		"facility_id":   b.FacilityID,
		"final_total":   b.FinalTotal,
		"discount":      b.Discount,
		"hold_deadline": b.HoldDeadline.Format(time.RFC3339),
	}
	return a.LogEvent(ctx, "booking.reserved", b.CustomerID, data)
}

func (a *AuditLogger) LogCancellationDecision(ctx context.Context, req domain.CancellationRequest, approved bool) error {
	action := "cancellation.rejected"
	if approved {
		action = "cancellation.approved"
	}
	data := map[string]interface{}{
		"booking_code":  req.BookingCode,
		"refund_amount": req.RefundAmount,
		"penalty":       req.PenaltyPercent,
	}
	return a.LogEvent(ctx, action, req.CustomerID, data)
}
