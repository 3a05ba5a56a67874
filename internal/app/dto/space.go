package dto

import (
	"time"

	domainspaces "elaview/internal/domain/spaces"
)

type SpaceView struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Name              string    `json:"name"`
	Kind              string    `json:"kind"`
	DailyRate         MoneyDTO  `json:"daily_rate"`
	ProhibitedContent []string  `json:"prohibited_content"`
	CreatedAt         time.Time `json:"created_at"`
}

type AvailabilityView struct {
	SpaceID      string   `json:"space_id"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	BlockedDates []string `json:"blocked_dates"`
}

func MapSpace(s *domainspaces.Space) SpaceView {
	prohibited := s.ProhibitedContent
	if prohibited == nil {
		prohibited = []string{}
	}
	return SpaceView{
		ID:                string(s.ID),
		OwnerID:           string(s.OwnerID),
		Name:              s.Name,
		Kind:              string(s.Kind),
		DailyRate:         MapMoney(s.DailyRate),
		ProhibitedContent: prohibited,
		CreatedAt:         s.CreatedAt,
	}
}
