package session

import (
	"context"
	"errors"
	"time"

	"elaview/internal/domain/availability"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/spaces"
)

var (
	ErrSessionNotFound     = errors.New("session: not found")
	ErrNotSessionOwner     = errors.New("session: owned by another advertiser")
	ErrAvailabilityLoading = errors.New("session: availability is still loading")
)

type SessionID string

// Session is one open booking dialog: the blocked-date snapshot taken when it
// opened, the advertiser's in-progress range and the draft details.
type Session struct {
	ID           SessionID
	SpaceID      spaces.SpaceID
	AdvertiserID string
	Selector     availability.RangeSelector
	Blocked      availability.BlockedDates
	Loading      bool
	LoadError    string
	Generation   uint64
	Details      draft.Details
	CreativeURL  string
	OpenedAt     time.Time
	TouchedAt    time.Time
}

// Store keeps sessions between requests. Update runs fn under the store's
// lock so that request handlers and background loads do not interleave.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id SessionID) (*Session, error)
	Update(ctx context.Context, id SessionID, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id SessionID) error
}

func Open(id SessionID, spaceID spaces.SpaceID, advertiserID string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:           id,
		SpaceID:      spaceID,
		AdvertiserID: advertiserID,
		Blocked:      availability.BlockedDates{},
		OpenedAt:     now,
		TouchedAt:    now,
	}
}

func (s *Session) EnsureOwner(advertiserID string) error {
	if s.AdvertiserID != advertiserID {
		return ErrNotSessionOwner
	}
	return nil
}

// BeginLoad starts a new availability load and returns its generation.
// Results stamped with an older generation are discarded.
func (s *Session) BeginLoad() uint64 {
	s.Generation++
	s.Loading = true
	s.LoadError = ""
	return s.Generation
}

// ApplyBlocked installs a finished load. It reports false when the result is stale.
func (s *Session) ApplyBlocked(generation uint64, blocked availability.BlockedDates, err error) bool {
	if generation != s.Generation || !s.Loading {
		return false
	}
	s.Loading = false
	if err != nil {
		s.Blocked = availability.BlockedDates{}
		s.LoadError = err.Error()
		return true
	}
	if blocked == nil {
		blocked = availability.BlockedDates{}
	}
	s.Blocked = blocked
	return true
}

func (s *Session) ready() error {
	if s.Loading {
		return ErrAvailabilityLoading
	}
	if s.LoadError != "" {
		return availability.ErrAvailabilityUnknown
	}
	return nil
}

func (s *Session) Click(day, today time.Time) (availability.Outcome, error) {
	if err := s.ready(); err != nil {
		return availability.OutcomeIgnored, err
	}
	return s.Selector.Click(day, s.Blocked, today), nil
}

func (s *Session) SelectRange(start, end, today time.Time) (availability.Outcome, error) {
	if err := s.ready(); err != nil {
		return availability.OutcomeIgnored, err
	}
	return s.Selector.SelectRange(start, end, s.Blocked, today), nil
}

func (s *Session) Hover(day time.Time) {
	s.Selector.SetHover(day)
}

func (s *Session) ResetSelection() {
	s.Selector.Reset()
}

func (s *Session) Calendar(month, today time.Time) []availability.CalendarDay {
	days := availability.BuildMonth(month, s.Selector.Selection, s.Selector.Hover, s.Blocked, today)
	if s.ready() != nil {
		for i := range days {
			days[i].Selectable = false
		}
	}
	return days
}

func (s *Session) Touch(now time.Time) {
	s.TouchedAt = now.UTC()
}

// Expired reports whether the session sat idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.TouchedAt) > ttl
}

// Clone returns a copy safe to read outside the store lock.
func (s *Session) Clone() *Session {
	c := *s
	c.Details.ContentTypes = append([]string(nil), s.Details.ContentTypes...)
	return &c
}
