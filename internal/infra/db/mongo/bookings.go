package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection(bookingsCollection)
	idx := mongo.IndexModel{Keys: bson.D{{Key: "space_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Save upserts with an optimistic version check.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// ListBySpace returns the space's bookings ordered by start day. An empty
// statuses slice matches every status.
func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, listFilter(spaceID, statuses), options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func listFilter(spaceID domainspaces.SpaceID, statuses []domainbooking.Status) bson.M {
	filter := bson.M{"space_id": string(spaceID)}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		filter["status"] = bson.M{"$in": values}
	}
	return filter
}

type bookingDocument struct {
	ID               string          `bson:"_id"`
	SpaceID          string          `bson:"space_id"`
	AdvertiserID     string          `bson:"advertiser_id"`
	Start            string          `bson:"start"`
	End              string          `bson:"end"`
	Status           string          `bson:"status"`
	Content          contentDocument `bson:"content"`
	TotalAmount      int64           `bson:"total_amount"`
	Currency         string          `bson:"currency"`
	NeedsApproval    bool            `bson:"needs_approval"`
	SensitiveContent bool            `bson:"sensitive_content"`
	CreatedAt        int64           `bson:"created_at"`
	UpdatedAt        int64           `bson:"updated_at"`
	Version          int64           `bson:"version"`
}

type contentDocument struct {
	CampaignName string   `bson:"campaign_name"`
	BrandName    string   `bson:"brand_name"`
	ContentTypes []string `bson:"content_types"`
	Description  string   `bson:"description"`
	Message      string   `bson:"message"`
	CreativeURL  string   `bson:"creative_url,omitempty"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:           string(b.ID),
		SpaceID:      string(b.SpaceID),
		AdvertiserID: b.AdvertiserID,
		Start:        daterange.Key(b.Range.Start),
		End:          daterange.Key(b.Range.End),
		Status:       string(b.Status),
		Content: contentDocument{
			CampaignName: b.Content.CampaignName,
			BrandName:    b.Content.BrandName,
			ContentTypes: b.Content.ContentTypes,
			Description:  b.Content.Description,
			Message:      b.Content.Message,
			CreativeURL:  b.Content.CreativeURL,
		},
		TotalAmount:      b.Total.Amount,
		Currency:         b.Total.Currency,
		NeedsApproval:    b.NeedsApproval,
		SensitiveContent: b.SensitiveContent,
		CreatedAt:        timeToTimestamp(b.CreatedAt),
		UpdatedAt:        timeToTimestamp(b.UpdatedAt),
		Version:          b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	start, err := daterange.ParseDay(d.Start)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s start: %w", d.ID, err)
	}
	end, err := daterange.ParseDay(d.End)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s end: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:           domainbooking.BookingID(d.ID),
		SpaceID:      domainspaces.SpaceID(d.SpaceID),
		AdvertiserID: d.AdvertiserID,
		Range:        daterange.Range{Start: start, End: end},
		Status:       domainbooking.Status(d.Status),
		Content: domainbooking.Content{
			CampaignName: d.Content.CampaignName,
			BrandName:    d.Content.BrandName,
			ContentTypes: d.Content.ContentTypes,
			Description:  d.Content.Description,
			Message:      d.Content.Message,
			CreativeURL:  d.Content.CreativeURL,
		},
		Total:            money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		NeedsApproval:    d.NeedsApproval,
		SensitiveContent: d.SensitiveContent,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}, nil
}
