package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minhduc28/airticket/internal/domain"
	"github.com/minhduc28/airticket/internal/service/booking"
)

// The upstream auth layer authenticates the session and forwards the
// customer id in this header.
const customerIDHeader = "X-Customer-ID"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID   int64                    `json:"flight_id"`
	Passengers []booking.PassengerInput `json:"passengers"`
}

type bookingResponse struct {
	BookingID  int64  `json:"booking_id"`
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	TotalPrice int64  `json:"total_price"`
}

type ticketResponse struct {
	TicketID      int64  `json:"ticket_id"`
	SeatID        int64  `json:"seat_id"`
	PassengerName string `json:"passenger_name"`
	Price         int64  `json:"price"`
}

type flightInfoResponse struct {
	FlightNumber  string `json:"flight_number"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

type bookingResultResponse struct {
	Booking    bookingResponse    `json:"booking"`
	Tickets    []ticketResponse   `json:"tickets"`
	FlightInfo flightInfoResponse `json:"flight_info"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:   req.FlightID,
		CustomerID: customerID,
		Passengers: req.Passengers,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResultResponse(result))
}

func (h *BookingHandler) get(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id", "code": "validation"})
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), id, customerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResultResponse(result))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id", "code": "validation"})
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), id, customerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": toBookingResponse(cancelled)})
}

func callerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader(customerIDHeader), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid customer identity"})
		return 0, false
	}
	return id, true
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:  b.ID,
		Reference:  b.Reference,
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice,
	}
}

func toResultResponse(result *booking.BookingResult) bookingResultResponse {
	tickets := make([]ticketResponse, 0, len(result.Tickets))
	for _, t := range result.Tickets {
		tickets = append(tickets, ticketResponse{
			TicketID:      t.ID,
			SeatID:        t.SeatID,
			PassengerName: t.PassengerName,
			Price:         t.Price,
		})
	}
	return bookingResultResponse{
		Booking: toBookingResponse(result.Booking),
		Tickets: tickets,
		FlightInfo: flightInfoResponse{
			FlightNumber:  result.Flight.FlightNumber,
			DepartureTime: result.Flight.DepartureTime.Format(time.RFC3339),
			ArrivalTime:   result.Flight.ArrivalTime.Format(time.RFC3339),
		},
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Unexpected
// failures stay opaque to the caller.
func writeError(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		na *domain.BookingNotAllowedError
		su *domain.SeatUnavailableError
		sc *domain.SeatConflictError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "code": "validation"})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error(), "code": "not_found"})
	case errors.As(err, &na):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": na.Error(), "code": "booking_not_allowed", "reason": string(na.Reason)})
	case errors.As(err, &su):
		c.JSON(http.StatusConflict, gin.H{"error": su.Error(), "code": "seat_unavailable", "seat_ids": su.SeatIDs})
	case errors.As(err, &sc):
		c.JSON(http.StatusConflict, gin.H{"error": sc.Error(), "code": "seat_conflict", "seat_ids": sc.SeatIDs})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}
