package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
)

type SpaceRepository struct {
	col *mongo.Collection
}

func NewSpaceRepository(db *mongo.Database) *SpaceRepository {
	col := db.Collection(spacesCollection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}})
	return &SpaceRepository{col: col}
}

func (r *SpaceRepository) ByID(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	var doc spaceDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainspaces.ErrSpaceNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *SpaceRepository) Save(ctx context.Context, space *domainspaces.Space) error {
	doc := newSpaceDocument(space)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// LockForBooking bumps the space's booking_version inside the caller's
// transaction. A second transaction touching the same space fails with a
// write conflict, reported as ErrSpaceBusy.
func (r *SpaceRepository) LockForBooking(ctx context.Context, id domainspaces.SpaceID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$inc": bson.M{"booking_version": 1}})
	if err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("%w: %v", domainspaces.ErrSpaceBusy, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domainspaces.ErrSpaceNotFound
	}
	return nil
}

func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
	}
	return false
}

type spaceDocument struct {
	ID                string   `bson:"_id"`
	OwnerID           string   `bson:"owner_id"`
	Name              string   `bson:"name"`
	Kind              string   `bson:"kind"`
	RateAmount        int64    `bson:"rate_amount"`
	RateCurrency      string   `bson:"rate_currency"`
	ProhibitedContent []string `bson:"prohibited_content"`
	CreatedAt         int64    `bson:"created_at"`
	UpdatedAt         int64    `bson:"updated_at"`
}

func newSpaceDocument(s *domainspaces.Space) spaceDocument {
	return spaceDocument{
		ID:                string(s.ID),
		OwnerID:           string(s.OwnerID),
		Name:              s.Name,
		Kind:              string(s.Kind),
		RateAmount:        s.DailyRate.Amount,
		RateCurrency:      s.DailyRate.Currency,
		ProhibitedContent: s.ProhibitedContent,
		CreatedAt:         timeToTimestamp(s.CreatedAt),
		UpdatedAt:         timeToTimestamp(s.UpdatedAt),
	}
}

func (d spaceDocument) toAggregate() *domainspaces.Space {
	return &domainspaces.Space{
		ID:                domainspaces.SpaceID(d.ID),
		OwnerID:           domainspaces.OwnerID(d.OwnerID),
		Name:              d.Name,
		Kind:              domainspaces.Kind(d.Kind),
		DailyRate:         money.Money{Amount: d.RateAmount, Currency: d.RateCurrency},
		ProhibitedContent: d.ProhibitedContent,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
	}
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
