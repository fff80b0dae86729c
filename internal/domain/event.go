package domain

import (
	"context"
	"time"
)

// Event is a reservable event with a fixed number of slots.
// swagger:model Event
type Event struct {
	ID            int64     `json:"event_id"`
	Name          string    `json:"event_name"`
	Slots         int       `json:"slots"`
	Location      string    `json:"location"`
	StartDateTime time.Time `json:"start_datetime"`
	EndDateTime   time.Time `json:"end_datetime"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(name string, slots int, location string, start, end time.Time) *Event {
	return &Event{
		Name:          name,
		Slots:         slots,
		Location:      location,
		StartDateTime: start,
		EndDateTime:   end,
	}
}

// EventSummary is an event together with its derived slots left.
// swagger:model EventSummary
type EventSummary struct {
	Event
	SlotsLeft int `json:"slots_left"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, event *Event) error
	// Delete removes the event; its reservations are removed with it.
	Delete(ctx context.Context, id int64) error
	// ListAvailable returns events whose end is at or after now, with slots left.
	ListAvailable(ctx context.Context, now time.Time) ([]*EventSummary, error)
	ListAll(ctx context.Context) ([]*EventSummary, error)
	ListPage(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}

// EventService defines the administration operations on events.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	UpdateEvent(ctx context.Context, event *Event) (*Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ListAvailableEvents(ctx context.Context) ([]*EventSummary, error)
	ListAllEvents(ctx context.Context) ([]*EventSummary, error)
	ListEventsPage(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}
