package allocation

import "errors"

var (
	ErrLotNotFound      = errors.New("lot not found")
	ErrNoAvailableSpot  = errors.New("no available spot in lot")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrAlreadyAvailable = errors.New("spot is already available")
)
