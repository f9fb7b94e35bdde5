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

// CatalogRepository is the facility metadata provider. The catalog is owned by
// the facility-management surface; this service only reads owner and rate.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("facilities"),
		logger: logger,
	}
}

type FacilityDoc struct {
	ID        uuid.UUID  `bson:"_id"`
	OwnerID   uuid.UUID  `bson:"owner_id"`
	Name      string     `bson:"name"`
	BaseRate  int64      `bson:"base_rate"`
	Courts    []CourtDoc `bson:"courts"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type CourtDoc struct {
	ID     uuid.UUID `bson:"_id"`
	Name   string    `bson:"name"`
	Active bool      `bson:"active"`
}

func (c *CatalogRepository) GetFacility(ctx context.Context, id uuid.UUID) (*domain.Facility, error) {
	var doc FacilityDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		c.logger.Error("failed to get facility", err)
		return nil, err
	}

	f := &domain.Facility{
		ID:       doc.ID,
		OwnerID:  doc.OwnerID,
		Name:     doc.Name,
		BaseRate: doc.BaseRate,
	}
	for _, court := range doc.Courts {
		if court.Active {
			f.Courts = append(f.Courts, court.ID)
		}
	}
	return f, nil
}

func (c *CatalogRepository) CreateFacility(ctx context.Context, doc FacilityDoc) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()
	_, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		c.logger.Error("failed to create facility", err)
		return err
	}
	return nil
}
