package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkwise/parkgo/internal/domain"
)

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ListLots lists lots, optionally filtered by a location substring
// (case-insensitive) and an exact pincode.
func (r *QueryRepo) ListLots(ctx context.Context, location, pincode string, limit, offset int) ([]domain.Lot, error) {
	const op = "postgres.QueryRepo.ListLots"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, location, address, pincode, total_spots, price_per_hour
		   FROM lots
		  WHERE ($1 = '' OR location ILIKE '%' || $1 || '%')
		    AND ($2 = '' OR pincode = $2)
		  ORDER BY id
		  LIMIT $3 OFFSET $4`,
		location, pincode, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Lot
	for rows.Next() {
		var l domain.Lot
		if err := rows.Scan(
			&l.ID, &l.Location, &l.Address, &l.Pincode, &l.TotalSpots, &l.PricePerHour,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListSpots lists the lot's spots in spot-number order.
func (r *QueryRepo) ListSpots(ctx context.Context, lotID int64) ([]domain.Spot, error) {
	const op = "postgres.QueryRepo.ListSpots"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, lot_id, spot_number, status
		   FROM parking_spots
		  WHERE lot_id = $1
		  ORDER BY spot_number`,
		lotID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Spot
	for rows.Next() {
		var s domain.Spot
		if err := rows.Scan(&s.ID, &s.LotID, &s.Number, &s.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListBookingsByUser lists a user's bookings, newest first. With openOnly
// it returns only bookings that have not been closed yet.
func (r *QueryRepo) ListBookingsByUser(ctx context.Context, userID int64, openOnly bool, limit, offset int) ([]domain.Booking, error) {
	const op = "postgres.QueryRepo.ListBookingsByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		   FROM bookings
		  WHERE user_id = $1
		    AND (NOT $2 OR exit_time IS NULL)
		  ORDER BY entry_time DESC
		  LIMIT $3 OFFSET $4`,
		userID, openOnly, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Vehicle, &b.LotID, &b.SpotID, &b.SpotNumber,
			&b.EntryTime, &b.ExitTime, &b.PricePerHour,
			&b.LotLocation, &b.LotAddress, &b.LotPincode, &b.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ActiveBookingBySpot returns the open booking occupying the spot.
//
// Returns:
//   - repository.ErrNotFound if no open booking references the spot.
func (r *QueryRepo) ActiveBookingBySpot(ctx context.Context, spotID int64) (*domain.Booking, error) {
	const op = "postgres.QueryRepo.ActiveBookingBySpot"

	db := r.handle()

	var b domain.Booking
	err := db.QueryRow(ctx,
		`SELECT `+bookingColumns+`
		   FROM bookings
		  WHERE spot_id = $1 AND exit_time IS NULL`,
		spotID,
	).Scan(
		&b.ID, &b.UserID, &b.Vehicle, &b.LotID, &b.SpotID, &b.SpotNumber,
		&b.EntryTime, &b.ExitTime, &b.PricePerHour,
		&b.LotLocation, &b.LotAddress, &b.LotPincode, &b.TotalAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &b, nil
}

// Summary aggregates system-wide lot and spot counts.
func (r *QueryRepo) Summary(ctx context.Context) (*domain.Summary, error) {
	const op = "postgres.QueryRepo.Summary"

	db := r.handle()

	var s domain.Summary
	err := db.QueryRow(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM lots),
		    (SELECT COUNT(*) FROM parking_spots),
		    (SELECT COUNT(*) FROM parking_spots WHERE status = 'occupied')`,
	).Scan(&s.Lots, &s.TotalSpots, &s.OccupiedSpots)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	s.AvailableSpots = s.TotalSpots - s.OccupiedSpots

	return &s, nil
}
