package domain

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
	SeatClassFirst    SeatClass = "first"
)

type Seat struct {
	ID          int64
	AirplaneID  int64
	SeatNumber  string
	Class       SeatClass
	IsAvailable bool
}
