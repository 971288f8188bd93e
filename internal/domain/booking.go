package domain

import "time"

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID         int64
	Reference  string
	CustomerID int64
	FlightID   int64
	Status     BookingStatus
	TotalPrice int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ticket is one passenger's seat assignment inside a booking. Rows survive
// cancellation for history; IsActive tracks whether the seat claim still holds.
type Ticket struct {
	ID            int64
	BookingID     int64
	SeatID        int64
	PassengerName string
	DateOfBirth   *time.Time
	Price         int64
	IsActive      bool
	CreatedAt     time.Time
}
