package httpgin

import (
	"time"

	"github.com/parkwise/parkgo/internal/domain"
)

type CreateLotRequest struct {
	Location     string `json:"location" binding:"required"`
	Address      string `json:"address" binding:"required"`
	Pincode      string `json:"pincode" binding:"required"`
	Capacity     int    `json:"capacity" binding:"required,gt=0"`
	PricePerHour int64  `json:"price_per_hour" binding:"gte=0"`
}

type ResizeLotRequest struct {
	Capacity     int   `json:"capacity" binding:"required,gt=0"`
	PricePerHour int64 `json:"price_per_hour" binding:"gte=0"`
}

type OpenBookingRequest struct {
	LotID   int64  `json:"lot_id" binding:"required"`
	Vehicle string `json:"vehicle" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateLotResponse struct {
	LotID int64 `json:"lot_id"`
}

type BookingResponse struct {
	BookingID    string     `json:"booking_id"`
	LotID        *int64     `json:"lot_id"`
	SpotID       *int64     `json:"spot_id"`
	SpotNumber   int        `json:"spot_number"`
	Vehicle      string     `json:"vehicle"`
	EntryTime    time.Time  `json:"entry_time"`
	ExitTime     *time.Time `json:"exit_time,omitempty"`
	PricePerHour int64      `json:"price_per_hour"`
	LotLocation  string     `json:"lot_location"`
	LotAddress   string     `json:"lot_address"`
	LotPincode   string     `json:"lot_pincode"`
	TotalAmount  *int64     `json:"total_amount,omitempty"`
}

type CloseBookingResponse struct {
	BookingID string    `json:"booking_id"`
	Hours     int64     `json:"hours"`
	Amount    int64     `json:"amount"`
	ExitTime  time.Time `json:"exit_time"`
}

type SpotDetailResponse struct {
	Spot    domain.Spot      `json:"spot"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

func toBookingResponse(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		BookingID:    b.ID.String(),
		LotID:        b.LotID,
		SpotID:       b.SpotID,
		SpotNumber:   b.SpotNumber,
		Vehicle:      b.Vehicle,
		EntryTime:    b.EntryTime,
		ExitTime:     b.ExitTime,
		PricePerHour: b.PricePerHour,
		LotLocation:  b.LotLocation,
		LotAddress:   b.LotAddress,
		LotPincode:   b.LotPincode,
		TotalAmount:  b.TotalAmount,
	}
}
