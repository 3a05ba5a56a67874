package dto

import (
	"time"

	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
)

type BookingSummary struct {
	ID               string    `json:"id"`
	SpaceID          string    `json:"space_id"`
	AdvertiserID     string    `json:"advertiser_id"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	Days             int       `json:"days"`
	Status           string    `json:"status"`
	CampaignName     string    `json:"campaign_name"`
	BrandName        string    `json:"brand_name"`
	ContentTypes     []string  `json:"content_type"`
	CreativeURL      string    `json:"creative_url,omitempty"`
	Total            MoneyDTO  `json:"total"`
	NeedsApproval    bool      `json:"needs_approval"`
	SensitiveContent bool      `json:"sensitive_content"`
	CreatedAt        time.Time `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	types := b.Content.ContentTypes
	if types == nil {
		types = []string{}
	}
	return BookingSummary{
		ID:               string(b.ID),
		SpaceID:          string(b.SpaceID),
		AdvertiserID:     b.AdvertiserID,
		StartDate:        daterange.Key(b.Range.Start),
		EndDate:          daterange.Key(b.Range.End),
		Days:             b.Range.Len(),
		Status:           string(b.Status),
		CampaignName:     b.Content.CampaignName,
		BrandName:        b.Content.BrandName,
		ContentTypes:     types,
		CreativeURL:      b.Content.CreativeURL,
		Total:            MapMoney(b.Total),
		NeedsApproval:    b.NeedsApproval,
		SensitiveContent: b.SensitiveContent,
		CreatedAt:        b.CreatedAt,
	}
}
