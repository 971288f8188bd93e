package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhduc28/airticket/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	InsertTicket(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// GetByIDForUpdate locks the booking row inside the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	TicketsByBooking(ctx context.Context, bookingID int64) ([]domain.Ticket, error)
	// DeactivateTickets marks a booking's tickets inactive and returns the
	// seat ids they were holding.
	DeactivateTickets(ctx context.Context, bookingID int64) ([]int64, error)
	// ActiveSeatConflicts returns the subset of seatIDs already referenced by
	// an active ticket of a non-cancelled booking on the given flight.
	ActiveSeatConflicts(ctx context.Context, flightID int64, seatIDs []int64) ([]int64, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, customer_id, flight_id, status, total_price, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return executor(ctx, r.db).QueryRow(ctx, `INSERT INTO bookings (reference, customer_id, flight_id, status, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.CustomerID, booking.FlightID, booking.Status, booking.TotalPrice).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) InsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	err := executor(ctx, r.db).QueryRow(ctx, `INSERT INTO tickets (booking_id, seat_id, passenger_name, date_of_birth, price, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, created_at`,
		ticket.BookingID, ticket.SeatID, ticket.PassengerName, ticket.DateOfBirth, ticket.Price).
		Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		// The partial unique index on active tickets is the final arbiter for
		// double-booked seats; both transactions can pass the re-check, only
		// one insert survives.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_tickets_active_seat" {
			return &domain.SeatConflictError{SeatIDs: []int64{ticket.SeatID}}
		}
		return err
	}
	ticket.IsActive = true
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, id, false)
}

func (r *PGBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, id, true)
}

func (r *PGBookingRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var b domain.Booking
	err := executor(ctx, r.db).QueryRow(ctx, query, id).
		Scan(&b.ID, &b.Reference, &b.CustomerID, &b.FlightID, &b.Status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "booking", ID: id}
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	var b domain.Booking
	err := executor(ctx, r.db).QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id).
		Scan(&b.ID, &b.Reference, &b.CustomerID, &b.FlightID, &b.Status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "booking", ID: id}
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) TicketsByBooking(ctx context.Context, bookingID int64) ([]domain.Ticket, error) {
	rows, err := executor(ctx, r.db).Query(ctx, `SELECT id, booking_id, seat_id, passenger_name, date_of_birth, price, is_active, created_at FROM tickets WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.BookingID, &t.SeatID, &t.PassengerName, &t.DateOfBirth, &t.Price, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *PGBookingRepository) DeactivateTickets(ctx context.Context, bookingID int64) ([]int64, error) {
	rows, err := executor(ctx, r.db).Query(ctx, `UPDATE tickets SET is_active=false WHERE booking_id=$1 AND is_active RETURNING seat_id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seatIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, id)
	}
	return seatIDs, rows.Err()
}

func (r *PGBookingRepository) ActiveSeatConflicts(ctx context.Context, flightID int64, seatIDs []int64) ([]int64, error) {
	rows, err := executor(ctx, r.db).Query(ctx, `SELECT t.seat_id FROM tickets t
		JOIN bookings b ON b.id = t.booking_id
		WHERE t.seat_id = ANY($2) AND t.is_active AND b.flight_id = $1 AND b.status <> $3
		ORDER BY t.seat_id`, flightID, seatIDs, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, id)
	}
	return conflicts, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
