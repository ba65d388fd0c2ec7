package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkwise/parkgo/internal/domain"
	"github.com/parkwise/parkgo/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const bookingColumns = `id, user_id, vehicle, lot_id, spot_id, spot_number,
	entry_time, exit_time, price_per_hour,
	lot_location, lot_address, lot_pincode, total_amount`

// Insert writes a freshly opened booking with its snapshot fields.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO bookings(id, user_id, vehicle, lot_id, spot_id, spot_number,
		                      entry_time, price_per_hour,
		                      lot_location, lot_address, lot_pincode)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.UserID, b.Vehicle, b.LotID, b.SpotID, b.SpotNumber,
		b.EntryTime, b.PricePerHour,
		b.LotLocation, b.LotAddress, b.LotPincode,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	return r.get(ctx, op, id, false)
}

// GetForUpdate retrieves a booking and locks its row, so two concurrent
// close attempts on the same booking serialize and the loser sees the
// exit time already set.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetForUpdate"

	return r.get(ctx, op, id, true)
}

func (r *BookingRepo) get(ctx context.Context, op string, id uuid.UUID, lock bool) (*domain.Booking, error) {
	db := r.handle()

	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	var b domain.Booking
	err := db.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.Vehicle, &b.LotID, &b.SpotID, &b.SpotNumber,
		&b.EntryTime, &b.ExitTime, &b.PricePerHour,
		&b.LotLocation, &b.LotAddress, &b.LotPincode, &b.TotalAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &b, nil
}

// Close finalizes an open booking with its exit time and amount due. The
// exit-time guard makes a second close a no-op at the SQL level; it is
// reported as repository.ErrBookingClosed.
func (r *BookingRepo) Close(ctx context.Context, id uuid.UUID, exit time.Time, amount int64) error {
	const op = "postgres.BookingRepo.Close"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
		    SET exit_time = $2, total_amount = $3
		  WHERE id = $1 AND exit_time IS NULL`,
		id, exit, amount,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, repository.ErrBookingClosed)
}

// DetachLot nulls the lot reference on every booking for the lot and the
// spot reference on every booking pointing at one of the lot's spots.
// Snapshot columns are untouched, keeping the audit trail readable.
func (r *BookingRepo) DetachLot(ctx context.Context, lotID int64) error {
	const op = "postgres.BookingRepo.DetachLot"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`UPDATE bookings
		    SET spot_id = NULL
		  WHERE spot_id IN (SELECT id FROM parking_spots WHERE lot_id = $1)`,
		lotID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if _, err := db.Exec(ctx,
		`UPDATE bookings SET lot_id = NULL WHERE lot_id = $1`,
		lotID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// DetachSpot nulls the spot reference on bookings for a single spot.
func (r *BookingRepo) DetachSpot(ctx context.Context, spotID int64) error {
	const op = "postgres.BookingRepo.DetachSpot"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`UPDATE bookings SET spot_id = NULL WHERE spot_id = $1`,
		spotID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}
