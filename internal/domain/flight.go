package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

type Flight struct {
	ID            int64
	FlightNumber  string
	AirplaneID    int64
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Status        FlightStatus
	BasePrice     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
