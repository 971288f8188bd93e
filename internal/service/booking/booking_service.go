package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/minhduc28/airticket/config"
	"github.com/minhduc28/airticket/internal/domain"
	"github.com/minhduc28/airticket/internal/kafka"
	"github.com/minhduc28/airticket/internal/repository"
)

const (
	maxPassengerNameLen = 100
	maxPassengerAge     = 120 // years
	dateOfBirthLayout   = "2006-01-02"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error)
	CancelBooking(ctx context.Context, bookingID, customerID int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, customerID int64) (*BookingResult, error)
}

type Cache interface {
	HoldSeats(ctx context.Context, seatIDs []int64, ttl time.Duration) ([]int64, error)
	ReleaseSeats(ctx context.Context, seatIDs []int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PassengerInput struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	SeatID      int64  `json:"seat_id"`
}

type CreateBookingInput struct {
	FlightID   int64            `json:"flight_id"`
	CustomerID int64            `json:"-"`
	Passengers []PassengerInput `json:"passengers"`
}

// BookingResult is the durably committed outcome of a successful booking.
type BookingResult struct {
	Booking *domain.Booking
	Tickets []domain.Ticket
	Flight  *domain.Flight
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	seats              repository.SeatRepository
	tx                 repository.Transactor
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	maxPassengers      int
	cutoff             time.Duration
	multipliers        config.ClassMultipliers
	holdTTL            time.Duration
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	seats repository.SeatRepository,
	tx repository.Transactor,
	cache Cache,
	producer Producer,
	eventsTopic string,
	cfg config.BookingConfig,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		flights:       flights,
		seats:         seats,
		tx:            tx,
		cache:         cache,
		producer:      producer,
		eventsTopic:   eventsTopic,
		maxPassengers: cfg.MaxPassengersPerBooking,
		cutoff:        time.Duration(cfg.CutoffHours) * time.Hour,
		multipliers:   cfg.Multipliers,
		holdTTL:       time.Duration(cfg.SeatHoldTTLSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type passenger struct {
	name   string
	dob    *time.Time
	seatID int64
}

// CreateBooking runs the full validation pipeline and commits the booking,
// its tickets and the seat availability flips in one transaction. On any
// failure nothing is persisted.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error) {
	passengers, err := validateInput(input, s.maxPassengers)
	if err != nil {
		return nil, err
	}

	seatIDs := make([]int64, 0, len(passengers))
	for _, p := range passengers {
		seatIDs = append(seatIDs, p.seatID)
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, classify("flight lookup", err)
	}

	if err := s.checkBookingWindow(flight); err != nil {
		return nil, err
	}

	// Redis hold is a cheap fast-fail in front of the transaction. A hold
	// failure other than contention is logged and ignored; the database
	// decides in the end.
	heldSeats := false
	if s.cache != nil {
		contested, err := s.cache.HoldSeats(ctx, seatIDs, s.holdTTL)
		if err != nil {
			log.Printf("seat hold error, falling through to transaction: %v", err)
		} else if len(contested) > 0 {
			return nil, &domain.SeatUnavailableError{SeatIDs: contested}
		} else {
			heldSeats = true
		}
	}

	var (
		booking *domain.Booking
		tickets []domain.Ticket
	)
	txErr := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		seats, err := s.seats.GetForUpdate(txCtx, flight.AirplaneID, seatIDs)
		if err != nil {
			return err
		}

		seatByID := make(map[int64]domain.Seat, len(seats))
		for _, seat := range seats {
			seatByID[seat.ID] = seat
		}
		var unavailable []int64
		for _, id := range seatIDs {
			seat, ok := seatByID[id]
			if !ok || !seat.IsAvailable {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			sortSeatIDs(unavailable)
			return &domain.SeatUnavailableError{SeatIDs: unavailable}
		}

		// Authoritative re-check inside the transaction: an availability flag
		// can lag a concurrently committed ticket.
		conflicts, err := s.bookings.ActiveSeatConflicts(txCtx, flight.ID, seatIDs)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &domain.SeatConflictError{SeatIDs: conflicts}
		}

		var total int64
		prices := make([]int64, len(passengers))
		for i, p := range passengers {
			price, err := s.priceFor(seatByID[p.seatID].Class, flight.BasePrice)
			if err != nil {
				return err
			}
			prices[i] = price
			total += price
		}

		booking = &domain.Booking{
			Reference:  uuid.NewString(),
			CustomerID: input.CustomerID,
			FlightID:   flight.ID,
			Status:     domain.BookingStatusBooked,
			TotalPrice: total,
		}
		if err := s.bookings.Create(txCtx, booking); err != nil {
			return err
		}

		tickets = make([]domain.Ticket, 0, len(passengers))
		for i, p := range passengers {
			ticket := domain.Ticket{
				BookingID:     booking.ID,
				SeatID:        p.seatID,
				PassengerName: p.name,
				DateOfBirth:   p.dob,
				Price:         prices[i],
			}
			if err := s.bookings.InsertTicket(txCtx, &ticket); err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}

		return s.seats.SetAvailability(txCtx, seatIDs, false)
	})
	if txErr != nil {
		if heldSeats {
			_ = s.cache.ReleaseSeats(ctx, seatIDs)
		}
		return nil, classify("booking commit", txErr)
	}
	if heldSeats {
		_ = s.cache.ReleaseSeats(ctx, seatIDs)
	}

	if err := s.publish(ctx, "booking_created", booking, seatIDs); err != nil {
		log.Printf("failed to publish booking_created event for booking %s: %v", booking.Reference, err)
	}

	return &BookingResult{Booking: booking, Tickets: tickets, Flight: flight}, nil
}

// CancelBooking flips the booking to cancelled and frees its seats in one
// transaction. It is the only other writer of the seat availability flag.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, customerID int64) (*domain.Booking, error) {
	var (
		cancelled *domain.Booking
		seatIDs   []int64
	)
	txErr := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.bookings.GetByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if current.CustomerID != customerID {
			return &domain.NotFoundError{Entity: "booking", ID: bookingID}
		}
		if current.Status == domain.BookingStatusCancelled {
			return &domain.BookingNotAllowedError{Reason: domain.ReasonAlreadyCancelled}
		}

		flight, err := s.flights.GetByID(txCtx, current.FlightID)
		if err != nil {
			return err
		}
		if !time.Now().Before(flight.DepartureTime) {
			return &domain.BookingNotAllowedError{Reason: domain.ReasonDeparted}
		}

		cancelled, err = s.bookings.UpdateStatus(txCtx, bookingID, domain.BookingStatusCancelled)
		if err != nil {
			return err
		}
		seatIDs, err = s.bookings.DeactivateTickets(txCtx, bookingID)
		if err != nil {
			return err
		}
		if len(seatIDs) == 0 {
			return nil
		}
		return s.seats.SetAvailability(txCtx, seatIDs, true)
	})
	if txErr != nil {
		return nil, classify("booking cancellation", txErr)
	}

	if s.cache != nil {
		_ = s.cache.ReleaseSeats(ctx, seatIDs)
	}
	if err := s.publish(ctx, "booking_cancelled", cancelled, seatIDs); err != nil {
		log.Printf("failed to publish booking_cancelled event for booking %s: %v", cancelled.Reference, err)
	}
	return cancelled, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, customerID int64) (*BookingResult, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, classify("booking lookup", err)
	}
	if booking.CustomerID != customerID {
		return nil, &domain.NotFoundError{Entity: "booking", ID: bookingID}
	}
	tickets, err := s.bookings.TicketsByBooking(ctx, bookingID)
	if err != nil {
		return nil, classify("booking lookup", err)
	}
	flight, err := s.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		return nil, classify("booking lookup", err)
	}
	return &BookingResult{Booking: booking, Tickets: tickets, Flight: flight}, nil
}

func (s *BookingService) checkBookingWindow(flight *domain.Flight) error {
	if flight.Status == domain.FlightStatusCancelled {
		return &domain.BookingNotAllowedError{Reason: domain.ReasonFlightCancelled}
	}
	now := time.Now()
	if !now.Before(flight.DepartureTime) {
		return &domain.BookingNotAllowedError{Reason: domain.ReasonDeparted}
	}
	// The boundary itself is rejected: a request landing exactly at
	// departure minus the cutoff is already too close.
	if !now.Before(flight.DepartureTime.Add(-s.cutoff)) {
		return &domain.BookingNotAllowedError{Reason: domain.ReasonTooCloseToDeparture}
	}
	return nil
}

func (s *BookingService) priceFor(class domain.SeatClass, basePrice int64) (int64, error) {
	var multiplier float64
	switch class {
	case domain.SeatClassEconomy:
		multiplier = s.multipliers.Economy
	case domain.SeatClassBusiness:
		multiplier = s.multipliers.Business
	case domain.SeatClassFirst:
		multiplier = s.multipliers.First
	default:
		return 0, &domain.PersistenceError{Op: "pricing", Err: errors.New("unknown seat class " + string(class))}
	}
	return int64(math.Round(float64(basePrice) * multiplier)), nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, seatIDs []int64) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		Reference:  booking.Reference,
		CustomerID: booking.CustomerID,
		FlightID:   booking.FlightID,
		SeatIDs:    seatIDs,
		TotalPrice: booking.TotalPrice,
		Status:     string(booking.Status),
		CreatedAt:  booking.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.Reference, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event)
	}
	return nil
}

func validateInput(input CreateBookingInput, maxPassengers int) ([]passenger, error) {
	if input.FlightID <= 0 {
		return nil, domain.NewValidationError("flight_id must be a positive integer")
	}
	if len(input.Passengers) == 0 {
		return nil, domain.NewValidationError("passengers list must not be empty")
	}
	if len(input.Passengers) > maxPassengers {
		return nil, domain.NewValidationError("at most %d passengers per booking", maxPassengers)
	}

	passengers := make([]passenger, 0, len(input.Passengers))
	for i, p := range input.Passengers {
		name := strings.Join(strings.Fields(p.Name), " ")
		if name == "" {
			return nil, domain.NewValidationError("passenger %d: name is required", i+1)
		}
		if utf8.RuneCountInString(name) > maxPassengerNameLen {
			return nil, domain.NewValidationError("passenger %d: name exceeds %d characters", i+1, maxPassengerNameLen)
		}
		if p.SeatID <= 0 {
			return nil, domain.NewValidationError("passenger %d: seat_id must be a positive integer", i+1)
		}

		var dob *time.Time
		if p.DateOfBirth != "" {
			parsed, err := time.Parse(dateOfBirthLayout, p.DateOfBirth)
			if err != nil {
				return nil, domain.NewValidationError("passenger %d: date_of_birth must be a valid date in YYYY-MM-DD format", i+1)
			}
			now := time.Now()
			if parsed.After(now) {
				return nil, domain.NewValidationError("passenger %d: date_of_birth must not be in the future", i+1)
			}
			if parsed.Before(now.AddDate(-maxPassengerAge, 0, 0)) {
				return nil, domain.NewValidationError("passenger %d: date_of_birth is more than %d years in the past", i+1, maxPassengerAge)
			}
			dob = &parsed
		}

		passengers = append(passengers, passenger{name: name, dob: dob, seatID: p.SeatID})
	}

	seen := make(map[int64]struct{}, len(passengers))
	for _, p := range passengers {
		if _, dup := seen[p.seatID]; dup {
			return nil, domain.NewValidationError("seat %d is requested more than once", p.seatID)
		}
		seen[p.seatID] = struct{}{}
	}

	return passengers, nil
}

// classify keeps typed domain errors as-is and wraps everything else as an
// opaque persistence failure with the cause logged server-side.
func classify(op string, err error) error {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		na *domain.BookingNotAllowedError
		su *domain.SeatUnavailableError
		sc *domain.SeatConflictError
		pe *domain.PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &na) ||
		errors.As(err, &su) || errors.As(err, &sc) || errors.As(err, &pe) {
		return err
	}
	log.Printf("%s failed: %v", op, err)
	return &domain.PersistenceError{Op: op, Err: err}
}

func sortSeatIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

var _ BookingUseCase = (*BookingService)(nil)
