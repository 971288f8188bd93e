package flights

import (
	"context"

	"github.com/minhduc28/airticket/internal/domain"
	"github.com/minhduc28/airticket/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type FlightService struct {
	flights repository.FlightRepository
	seats   repository.SeatRepository
	cache   FlightCache
}

func NewFlightService(flights repository.FlightRepository, seats repository.SeatRepository, cache FlightCache) *FlightService {
	return &FlightService{flights: flights, seats: seats, cache: cache}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, id)
}

// ListSeats exposes the seat map of the airplane serving a flight, with the
// current availability flags.
func (s *FlightService) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	return s.seats.ListByAirplane(ctx, flight.AirplaneID)
}

var _ FlightUseCase = (*FlightService)(nil)
