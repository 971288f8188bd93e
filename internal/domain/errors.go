package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Reason codes carried by BookingNotAllowedError.
type NotAllowedReason string

const (
	ReasonFlightCancelled     NotAllowedReason = "flight_cancelled"
	ReasonDeparted            NotAllowedReason = "departed"
	ReasonTooCloseToDeparture NotAllowedReason = "too_close_to_departure"
	ReasonAlreadyCancelled    NotAllowedReason = "already_cancelled"
)

// ValidationError means the request itself is malformed or violates a
// policy limit. The caller can fix the input and retry.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// BookingNotAllowedError means a business-rule gate rejected the operation.
type BookingNotAllowedError struct {
	Reason NotAllowedReason
}

func (e *BookingNotAllowedError) Error() string {
	return fmt.Sprintf("booking not allowed: %s", e.Reason)
}

// SeatUnavailableError lists requested seats that do not exist, belong to a
// different airplane, or are already marked unavailable.
type SeatUnavailableError struct {
	SeatIDs []int64
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", joinSeatIDs(e.SeatIDs))
}

// SeatConflictError is the concurrency safety net: the seats looked free but
// another booking claimed them first. The caller should re-fetch seat state
// and retry with different seats.
type SeatConflictError struct {
	SeatIDs []int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already taken: %s", joinSeatIDs(e.SeatIDs))
}

// PersistenceError wraps an unexpected storage failure. The cause is kept for
// server-side logs; callers see only a generic message.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func joinSeatIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
