package spaces

import (
	"context"
	"errors"
	"strings"
	"time"

	"elaview/internal/domain/shared/money"
)

var (
	ErrSpaceNotFound    = errors.New("spaces: not found")
	ErrOwnerRequired    = errors.New("spaces: owner id required")
	ErrNameRequired     = errors.New("spaces: name required")
	ErrInvalidDailyRate = errors.New("spaces: daily rate must be positive")
	ErrInvalidKind      = errors.New("spaces: unknown space kind")
	ErrSpaceBusy        = errors.New("spaces: another booking change is in progress")
)

type SpaceID string

type OwnerID string

type Kind string

const (
	KindBillboard     Kind = "billboard"
	KindDigitalScreen Kind = "digital_screen"
	KindTransit       Kind = "transit"
	KindRetailWindow  Kind = "retail_window"
	KindWallMural     Kind = "wall_mural"
	KindOther         Kind = "other"
)

// ParseKind maps an empty value to KindOther.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch k {
	case "":
		return KindOther, nil
	case KindBillboard, KindDigitalScreen, KindTransit, KindRetailWindow, KindWallMural, KindOther:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Space is an advertising area that advertisers book by the day.
type Space struct {
	ID                SpaceID
	OwnerID           OwnerID
	Name              string
	Kind              Kind
	DailyRate         money.Money
	ProhibitedContent []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Repository interface {
	ByID(ctx context.Context, id SpaceID) (*Space, error)
	Save(ctx context.Context, space *Space) error
	// LockForBooking serializes booking changes on the space until the
	// surrounding unit of work ends.
	LockForBooking(ctx context.Context, id SpaceID) error
}

type CreateParams struct {
	ID                SpaceID
	OwnerID           OwnerID
	Name              string
	Kind              Kind
	DailyRate         money.Money
	ProhibitedContent []string
	Now               time.Time
}

func NewSpace(params CreateParams) (*Space, error) {
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if params.DailyRate.Amount <= 0 {
		return nil, ErrInvalidDailyRate
	}
	kind := params.Kind
	if kind == "" {
		kind = KindOther
	}
	now := params.Now.UTC()
	return &Space{
		ID:                params.ID,
		OwnerID:           params.OwnerID,
		Name:              name,
		Kind:              kind,
		DailyRate:         params.DailyRate,
		ProhibitedContent: normalizeTags(params.ProhibitedContent),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// HasRestrictions reports whether the owner declared any prohibited content.
func (s *Space) HasRestrictions() bool {
	return len(s.ProhibitedContent) > 0
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
