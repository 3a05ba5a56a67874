package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
)

// SpaceRepository keeps spaces in memory. Stored values are copied on the
// way in and out so callers never share state with the store.
type SpaceRepository struct {
	mu    sync.RWMutex
	items map[domainspaces.SpaceID]domainspaces.Space
}

func NewSpaceRepository() *SpaceRepository {
	return &SpaceRepository{items: make(map[domainspaces.SpaceID]domainspaces.Space)}
}

func (r *SpaceRepository) ByID(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	space, ok := r.items[id]
	if !ok {
		return nil, domainspaces.ErrSpaceNotFound
	}
	space.ProhibitedContent = append([]string(nil), space.ProhibitedContent...)
	return &space, nil
}

func (r *SpaceRepository) Save(ctx context.Context, space *domainspaces.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *space
	stored.ProhibitedContent = append([]string(nil), space.ProhibitedContent...)
	r.items[space.ID] = stored
	return nil
}

// LockForBooking only checks the space exists; writable units already run
// one at a time under the factory's writer lock.
func (r *SpaceRepository) LockForBooking(ctx context.Context, id domainspaces.SpaceID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.items[id]; !ok {
		return domainspaces.ErrSpaceNotFound
	}
	return nil
}

type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// ListBySpace returns bookings of the space in any of statuses, oldest start
// first. An empty statuses slice matches all.
func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.SpaceID != spaceID || !statusIn(b.Status, statuses) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out, nil
}

func statusIn(s domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.Content.ContentTypes = append([]string(nil), b.Content.ContentTypes...)
	c.ClearEvents()
	return &c
}

var (
	_ domainspaces.Repository  = (*SpaceRepository)(nil)
	_ domainbooking.Repository = (*BookingRepository)(nil)
)
