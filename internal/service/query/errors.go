package query

import "errors"

var (
	ErrLotNotFound     = errors.New("lot not found")
	ErrSpotNotFound    = errors.New("spot not found")
	ErrBookingNotFound = errors.New("booking not found")
)
