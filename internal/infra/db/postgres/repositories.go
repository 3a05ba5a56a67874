package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
)

type SpaceRepository struct{ q querier }

func NewSpaceRepository(q querier) *SpaceRepository { return &SpaceRepository{q: q} }

func (r *SpaceRepository) ByID(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	row := conn(ctx, r.q).QueryRow(ctx, `
		SELECT id, owner_id, name, kind, rate_amount, rate_currency, prohibited_content, created_at, updated_at
		FROM spaces WHERE id=$1
	`, string(id))
	var (
		s                 domainspaces.Space
		spaceID, ownerID  string
		kind              string
		prohibitedContent []string
	)
	if err := row.Scan(&spaceID, &ownerID, &s.Name, &kind, &s.DailyRate.Amount, &s.DailyRate.Currency, &prohibitedContent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainspaces.ErrSpaceNotFound
		}
		return nil, err
	}
	s.ID = domainspaces.SpaceID(spaceID)
	s.OwnerID = domainspaces.OwnerID(ownerID)
	s.Kind = domainspaces.Kind(kind)
	s.ProhibitedContent = prohibitedContent
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *SpaceRepository) Save(ctx context.Context, s *domainspaces.Space) error {
	prohibited := s.ProhibitedContent
	if prohibited == nil {
		prohibited = []string{}
	}
	_, err := conn(ctx, r.q).Exec(ctx, `
		INSERT INTO spaces (id, owner_id, name, kind, rate_amount, rate_currency, prohibited_content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			owner_id=EXCLUDED.owner_id, name=EXCLUDED.name, kind=EXCLUDED.kind,
			rate_amount=EXCLUDED.rate_amount, rate_currency=EXCLUDED.rate_currency,
			prohibited_content=EXCLUDED.prohibited_content, updated_at=EXCLUDED.updated_at
	`, string(s.ID), string(s.OwnerID), s.Name, string(s.Kind), s.DailyRate.Amount, s.DailyRate.Currency, prohibited, orNow(s.CreatedAt), orNow(s.UpdatedAt))
	return err
}

// LockForBooking takes the space row lock. Concurrent callers wait until the
// holder's transaction ends and then see its committed bookings.
func (r *SpaceRepository) LockForBooking(ctx context.Context, id domainspaces.SpaceID) error {
	var locked string
	err := conn(ctx, r.q).QueryRow(ctx, `SELECT id FROM spaces WHERE id=$1 FOR UPDATE`, string(id)).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainspaces.ErrSpaceNotFound
	}
	return err
}

type BookingRepository struct{ q querier }

func NewBookingRepository(q querier) *BookingRepository { return &BookingRepository{q: q} }

const bookingColumns = `id, space_id, advertiser_id, start_date, end_date, status,
	campaign_name, brand_name, content_types, description, message, creative_url,
	total_amount, currency, needs_approval, sensitive_content, created_at, updated_at, version`

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	row := conn(ctx, r.q).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, err
}

// Save inserts a new booking or updates an existing one whose stored version
// still matches b.Version.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	contentTypes := b.Content.ContentTypes
	if contentTypes == nil {
		contentTypes = []string{}
	}
	tag, err := conn(ctx, r.q).Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19+1)
		ON CONFLICT (id) DO UPDATE SET
			status=EXCLUDED.status, start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
			campaign_name=EXCLUDED.campaign_name, brand_name=EXCLUDED.brand_name,
			content_types=EXCLUDED.content_types, description=EXCLUDED.description,
			message=EXCLUDED.message, creative_url=EXCLUDED.creative_url,
			total_amount=EXCLUDED.total_amount, currency=EXCLUDED.currency,
			needs_approval=EXCLUDED.needs_approval, sensitive_content=EXCLUDED.sensitive_content,
			updated_at=EXCLUDED.updated_at, version=bookings.version+1
		WHERE bookings.version=$19
	`,
		string(b.ID), string(b.SpaceID), b.AdvertiserID, b.Range.Start, b.Range.End, string(b.Status),
		b.Content.CampaignName, b.Content.BrandName, contentTypes, b.Content.Description, b.Content.Message, b.Content.CreativeURL,
		b.Total.Amount, b.Total.Currency, b.NeedsApproval, b.SensitiveContent, orNow(b.CreatedAt), orNow(b.UpdatedAt), b.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

// ListBySpace returns the space's bookings ordered by start day. An empty
// statuses slice matches every status.
func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := make([]string, len(statuses))
	for i, s := range statuses {
		filter[i] = string(s)
	}
	rows, err := conn(ctx, r.q).Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE space_id=$1 AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY start_date, created_at
	`, string(spaceID), filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domainbooking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*domainbooking.Booking, error) {
	var (
		b                    domainbooking.Booking
		id, spaceID, status  string
		start, end           time.Time
		totalAmount          int64
		currency             string
		createdAt, updatedAt time.Time
		contentTypes         []string
	)
	err := row.Scan(
		&id, &spaceID, &b.AdvertiserID, &start, &end, &status,
		&b.Content.CampaignName, &b.Content.BrandName, &contentTypes, &b.Content.Description, &b.Content.Message, &b.Content.CreativeURL,
		&totalAmount, &currency, &b.NeedsApproval, &b.SensitiveContent, &createdAt, &updatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.ID = domainbooking.BookingID(id)
	b.SpaceID = domainspaces.SpaceID(spaceID)
	b.Status = domainbooking.Status(status)
	b.Range = daterange.Range{Start: daterange.Day(start), End: daterange.Day(end)}
	b.Content.ContentTypes = contentTypes
	b.Total = money.Money{Amount: totalAmount, Currency: currency}
	b.CreatedAt = createdAt.UTC()
	b.UpdatedAt = updatedAt.UTC()
	return &b, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
