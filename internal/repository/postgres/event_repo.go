package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventreservation/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (event_name, slots, location, start_datetime, end_datetime)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING event_id
	`
	return r.DB.QueryRowContext(ctx, query, e.Name, e.Slots, e.Location, e.StartDateTime, e.EndDateTime).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `
		SELECT event_id, event_name, slots, location, start_datetime, end_datetime
		FROM events
		WHERE event_id = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.Slots, &e.Location, &e.StartDateTime, &e.EndDateTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET event_name = $1, slots = $2, location = $3, start_datetime = $4, end_datetime = $5
		WHERE event_id = $6
	`
	result, err := r.DB.ExecContext(ctx, query, e.Name, e.Slots, e.Location, e.StartDateTime, e.EndDateTime, e.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM events WHERE event_id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListAvailable(ctx context.Context, now time.Time) ([]*domain.EventSummary, error) {
	query := `
		SELECT e.event_id, e.event_name, e.slots, e.location, e.start_datetime, e.end_datetime,
			e.slots - COUNT(r.reservation_id) AS slots_left
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.event_id
		WHERE e.end_datetime >= $1
		GROUP BY e.event_id
		ORDER BY e.start_datetime ASC, e.event_id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEventSummaries(rows)
}

func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.EventSummary, error) {
	query := `
		SELECT e.event_id, e.event_name, e.slots, e.location, e.start_datetime, e.end_datetime,
			e.slots - COUNT(r.reservation_id) AS slots_left
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.event_id
		GROUP BY e.event_id
		ORDER BY e.event_id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEventSummaries(rows)
}

func (r *eventRepository) ListPage(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT event_id, event_name, slots, location, start_datetime, end_datetime
		FROM events
		ORDER BY event_id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Slots, &e.Location, &e.StartDateTime, &e.EndDateTime); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func scanEventSummaries(rows *sql.Rows) ([]*domain.EventSummary, error) {
	events := make([]*domain.EventSummary, 0)
	for rows.Next() {
		e := &domain.EventSummary{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Slots, &e.Location, &e.StartDateTime, &e.EndDateTime, &e.SlotsLeft); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
