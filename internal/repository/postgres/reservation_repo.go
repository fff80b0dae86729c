package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventreservation/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	reservationEmailIndex = "idx_reservations_event_email"
)

// numberedReservationsCTE numbers an event's reservations by (reservation_date, reservation_id).
// The event id is always $1.
const numberedReservationsCTE = `
	WITH numbered AS (
		SELECT r.reservation_id, r.event_id, r.name, em.email_address, r.mobile_number,
			r.reservation_date, r.address, r.scanned, r.reservation_uuid,
			ROW_NUMBER() OVER (ORDER BY r.reservation_date ASC, r.reservation_id ASC) AS reservation_number
		FROM reservations r
		JOIN emails em ON em.email_id = r.email_id
		WHERE r.event_id = $1
	)
`

const numberedReservationColumns = `reservation_id, event_id, name, email_address, mobile_number, reservation_date, address, scanned, reservation_uuid, reservation_number`

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{DB: db}
}

// Admit runs the whole admission in one transaction. The event row is locked first so
// admissions for the same event are serialised; the capacity check and the insert are a
// single conditional statement evaluated under that lock. Any rejection rolls back the
// email identity upsert with everything else.
func (r *reservationRepository) Admit(ctx context.Context, res *domain.Reservation) (domain.AdmissionOutcome, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var slots int
	err = tx.QueryRowContext(ctx, `SELECT slots FROM events WHERE event_id = $1 FOR UPDATE`, res.EventID).Scan(&slots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lock event: %w", err)
	}

	var emailID int64
	upsertEmail := `
		INSERT INTO emails (email_address)
		VALUES ($1)
		ON CONFLICT (email_address) DO UPDATE SET email_address = EXCLUDED.email_address
		RETURNING email_id
	`
	if err := tx.QueryRowContext(ctx, upsertEmail, res.Email).Scan(&emailID); err != nil {
		return "", fmt.Errorf("upsert email: %w", err)
	}

	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM reservations WHERE event_id = $1 AND email_id = $2)`
	if err := tx.QueryRowContext(ctx, existsQuery, res.EventID, emailID).Scan(&exists); err != nil {
		return "", fmt.Errorf("check existing reservation: %w", err)
	}
	if exists {
		return domain.AdmissionDuplicateEmail, nil
	}

	insert := `
		WITH slots_check AS (
			SELECT e.event_id, e.slots - COUNT(r.reservation_id) AS slots_left
			FROM events e
			LEFT JOIN reservations r ON r.event_id = e.event_id
			WHERE e.event_id = $1
			GROUP BY e.event_id
		)
		INSERT INTO reservations (event_id, name, email_id, mobile_number, reservation_date, address, reservation_uuid)
		SELECT $1, $2, $3, $4, $5, $6, $7
		FROM slots_check
		WHERE slots_left > 0
		RETURNING reservation_id
	`
	err = tx.QueryRowContext(ctx, insert,
		res.EventID, res.Name, emailID, res.MobileNumber, res.ReservationDate, res.Address, res.Token,
	).Scan(&res.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AdmissionSlotsFull, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == reservationEmailIndex {
			return domain.AdmissionDuplicateEmail, nil
		}
		return "", fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit admission: %w", err)
	}
	committed = true
	return domain.AdmissionAdmitted, nil
}

func (r *reservationRepository) GetNumbered(ctx context.Context, eventID int64, token string) (*domain.Reservation, error) {
	query := numberedReservationsCTE + `SELECT ` + numberedReservationColumns + ` FROM numbered WHERE reservation_uuid = $2`
	res := &domain.Reservation{}
	err := r.DB.QueryRowContext(ctx, query, eventID, token).Scan(
		&res.ID, &res.EventID, &res.Name, &res.Email, &res.MobileNumber,
		&res.ReservationDate, &res.Address, &res.Scanned, &res.Token, &res.Number,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) ListByEventID(ctx context.Context, eventID int64, params domain.PaginationParams) ([]*domain.Reservation, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := numberedReservationsCTE + `SELECT ` + numberedReservationColumns + `
		FROM numbered
		ORDER BY reservation_number ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res := &domain.Reservation{}
		if err := rows.Scan(
			&res.ID, &res.EventID, &res.Name, &res.Email, &res.MobileNumber,
			&res.ReservationDate, &res.Address, &res.Scanned, &res.Token, &res.Number,
		); err != nil {
			return nil, 0, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (r *reservationRepository) MarkScanned(ctx context.Context, eventID int64, token string) (bool, error) {
	query := `
		UPDATE reservations SET scanned = true
		WHERE event_id = $1 AND reservation_uuid = $2 AND scanned = false
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, token)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *reservationRepository) Delete(ctx context.Context, id int64) (*domain.Reservation, error) {
	query := `
		DELETE FROM reservations r
		USING emails em
		WHERE r.reservation_id = $1 AND em.email_id = r.email_id
		RETURNING r.reservation_id, r.event_id, r.name, em.email_address, r.mobile_number,
			r.reservation_date, r.address, r.scanned, r.reservation_uuid
	`
	res := &domain.Reservation{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.EventID, &res.Name, &res.Email, &res.MobileNumber,
		&res.ReservationDate, &res.Address, &res.Scanned, &res.Token,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}
