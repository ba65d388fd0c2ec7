package lots

import "errors"

var (
	ErrLotNotFound       = errors.New("lot not found")
	ErrSpotNotFound      = errors.New("spot not found")
	ErrInvalidInput      = errors.New("invalid lot parameters")
	ErrCapacityViolation = errors.New("capacity below occupied spots")
	ErrOccupiedSpots     = errors.New("lot has occupied spots")
	ErrSpotOccupied      = errors.New("spot is occupied")
)
