package domain

import (
	"time"

	"github.com/google/uuid"
)

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

type Lot struct {
	ID           int64
	Location     string
	Address      string
	Pincode      string
	TotalSpots   int
	PricePerHour int64
}

type Spot struct {
	ID     int64
	LotID  int64
	Number int
	Status SpotStatus
}

// LotCounts is the per-lot occupancy breakdown. Total equals the lot's
// recorded capacity while the spot invariants hold.
type LotCounts struct {
	Available int64
	Occupied  int64
	Total     int64
}

// Booking is a single vehicle's occupancy record from entry to exit.
// LotID and SpotID turn NULL if the lot or spot is deleted later; the
// snapshot fields keep the historical record readable regardless.
type Booking struct {
	ID           uuid.UUID
	UserID       int64
	Vehicle      string
	LotID        *int64
	SpotID       *int64
	SpotNumber   int
	EntryTime    time.Time
	ExitTime     *time.Time
	PricePerHour int64
	LotLocation  string
	LotAddress   string
	LotPincode   string
	TotalAmount  *int64
}

// Open reports whether the booking has not been closed yet.
func (b *Booking) Open() bool {
	return b.ExitTime == nil
}

// Receipt is the result of closing a booking.
type Receipt struct {
	BookingID uuid.UUID
	Hours     int64
	Amount    int64
	ExitTime  time.Time
}

// Summary is the system-wide occupancy report.
type Summary struct {
	Lots           int64
	TotalSpots     int64
	OccupiedSpots  int64
	AvailableSpots int64
}
