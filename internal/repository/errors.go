package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrNoAvailableSpot = errors.New("no available spot")
	ErrSpotOccupied    = errors.New("spot is occupied")
	ErrSpotNotOccupied = errors.New("spot is not occupied")
	ErrBookingClosed   = errors.New("booking already closed")
	ErrTransient       = errors.New("transient store error")
)
