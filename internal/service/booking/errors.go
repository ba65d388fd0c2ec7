package booking

import "errors"

var (
	ErrLotNotFound     = errors.New("lot not found")
	ErrNoAvailableSpot = errors.New("no available spot in lot")
	ErrInvalidVehicle  = errors.New("vehicle number must be 4-15 alphanumeric characters")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("booking belongs to another user")
	ErrAlreadyClosed   = errors.New("booking is already closed")
	ErrRateLimited     = errors.New("too many booking attempts")
)
