package email

import (
	"context"
	"fmt"

	"github.com/minhduc28/airticket/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify customer %d: booking %s is %s (flight %d, %d seats, total %d)\n",
		event.CustomerID, event.Reference, event.Type, event.FlightID, len(event.SeatIDs), event.TotalPrice)
	return nil
}
