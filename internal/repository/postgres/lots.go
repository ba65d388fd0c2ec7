package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkwise/parkgo/internal/domain"
	"github.com/parkwise/parkgo/internal/repository"
)

type LotRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *LotRepo) With(db DB) *LotRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LotRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts the lot record and returns its ID. Spots are created
// separately by the caller inside the same transaction.
func (r *LotRepo) Create(ctx context.Context, lot *domain.Lot) (int64, error) {
	const op = "postgres.LotRepo.Create"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO lots(location, address, pincode, total_spots, price_per_hour)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		lot.Location, lot.Address, lot.Pincode, lot.TotalSpots, lot.PricePerHour,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return id, nil
}

// Get retrieves a lot by its ID.
//
// Returns:
//   - repository.ErrNotFound if the lot does not exist.
func (r *LotRepo) Get(ctx context.Context, id int64) (*domain.Lot, error) {
	const op = "postgres.LotRepo.Get"

	return r.get(ctx, op, id, false)
}

// GetForUpdate retrieves a lot and locks its row for the rest of the
// transaction. Resize and delete take this lock first so concurrent
// mutations of the same lot serialize.
func (r *LotRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Lot, error) {
	const op = "postgres.LotRepo.GetForUpdate"

	return r.get(ctx, op, id, true)
}

func (r *LotRepo) get(ctx context.Context, op string, id int64, lock bool) (*domain.Lot, error) {
	db := r.handle()

	q := `SELECT id, location, address, pincode, total_spots, price_per_hour
	        FROM lots
	       WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	var l domain.Lot
	err := db.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.Location, &l.Address, &l.Pincode, &l.TotalSpots, &l.PricePerHour,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &l, nil
}

// UpdateShape sets the lot's recorded capacity and hourly price. The price
// change affects only bookings opened afterwards; open bookings keep the
// price snapshotted at entry.
func (r *LotRepo) UpdateShape(ctx context.Context, id int64, totalSpots int, pricePerHour int64) error {
	const op = "postgres.LotRepo.UpdateShape"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE lots
		    SET total_spots = $2, price_per_hour = $3
		  WHERE id = $1`,
		id, totalSpots, pricePerHour,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// SetTotalSpots rewrites the recorded capacity, used after a single spot
// deletion to keep the counter equal to the actual spot count.
func (r *LotRepo) SetTotalSpots(ctx context.Context, id int64, totalSpots int) error {
	const op = "postgres.LotRepo.SetTotalSpots"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE lots SET total_spots = $2 WHERE id = $1`,
		id, totalSpots,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes the lot row and every spot belonging to it. Historical
// bookings must be detached first; they are never deleted.
func (r *LotRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.LotRepo.Delete"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`DELETE FROM parking_spots WHERE lot_id = $1`, id,
	); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	tag, err := db.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}
