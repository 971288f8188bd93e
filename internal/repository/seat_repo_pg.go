package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhduc28/airticket/internal/domain"
)

type SeatRepository interface {
	ListByAirplane(ctx context.Context, airplaneID int64) ([]domain.Seat, error)
	// GetForUpdate loads the requested seats of one airplane and locks their
	// rows for the duration of the surrounding transaction.
	GetForUpdate(ctx context.Context, airplaneID int64, seatIDs []int64) ([]domain.Seat, error)
	SetAvailability(ctx context.Context, seatIDs []int64, available bool) error
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

func (r *PGSeatRepository) ListByAirplane(ctx context.Context, airplaneID int64) ([]domain.Seat, error) {
	rows, err := executor(ctx, r.db).Query(ctx, `SELECT id, airplane_id, seat_number, class, is_available FROM seats WHERE airplane_id=$1 ORDER BY id`, airplaneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.AirplaneID, &s.SeatNumber, &s.Class, &s.IsAvailable); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGSeatRepository) GetForUpdate(ctx context.Context, airplaneID int64, seatIDs []int64) ([]domain.Seat, error) {
	rows, err := executor(ctx, r.db).Query(ctx, `SELECT id, airplane_id, seat_number, class, is_available FROM seats WHERE airplane_id=$1 AND id = ANY($2) FOR UPDATE`, airplaneID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0, len(seatIDs))
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.AirplaneID, &s.SeatNumber, &s.Class, &s.IsAvailable); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGSeatRepository) SetAvailability(ctx context.Context, seatIDs []int64, available bool) error {
	cmd, err := executor(ctx, r.db).Exec(ctx, `UPDATE seats SET is_available=$2 WHERE id = ANY($1)`, seatIDs, available)
	if err != nil {
		return err
	}
	if int(cmd.RowsAffected()) != len(seatIDs) {
		return fmt.Errorf("expected to update %d seats, updated %d", len(seatIDs), cmd.RowsAffected())
	}
	return nil
}

var _ SeatRepository = (*PGSeatRepository)(nil)
