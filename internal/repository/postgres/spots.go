package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkwise/parkgo/internal/domain"
	"github.com/parkwise/parkgo/internal/repository"
)

type SpotRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SpotRepo) With(db DB) *SpotRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SpotRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ReserveLowest atomically flips the lowest-numbered available spot of the
// lot to occupied and returns it. The FOR UPDATE subselect guarantees that
// two concurrent callers never receive the same spot; SKIP LOCKED makes a
// contending caller move on to the next free spot instead of rechecking a
// row another caller just flipped, which would report a full lot while
// lower-numbered spots remain.
//
// Returns:
//   - repository.ErrNotFound if the lot does not exist.
//   - repository.ErrNoAvailableSpot if every spot is occupied.
func (r *SpotRepo) ReserveLowest(ctx context.Context, lotID int64) (*domain.Spot, error) {
	const op = "postgres.SpotRepo.ReserveLowest"

	db := r.handle()

	var s domain.Spot
	err := db.QueryRow(ctx,
		`UPDATE parking_spots
		    SET status = 'occupied'
		  WHERE id = (
		        SELECT id
		          FROM parking_spots
		         WHERE lot_id = $1 AND status = 'available'
		         ORDER BY spot_number
		         LIMIT 1
		         FOR UPDATE SKIP LOCKED
		  )
		  RETURNING id, lot_id, spot_number, status`,
		lotID,
	).Scan(&s.ID, &s.LotID, &s.Number, &s.Status)
	if err == nil {
		return &s, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	// No available spot or no such lot at all; tell the two apart.
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lots WHERE id = $1)`, lotID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil, fmt.Errorf("%s: %w", op, repository.ErrNoAvailableSpot)
}

// Release transitions the spot from occupied back to available.
//
// Returns:
//   - repository.ErrNotFound if the spot does not exist.
//   - repository.ErrSpotNotOccupied if the spot is already available.
func (r *SpotRepo) Release(ctx context.Context, spotID int64) error {
	const op = "postgres.SpotRepo.Release"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE parking_spots
		    SET status = 'available'
		  WHERE id = $1 AND status = 'occupied'`,
		spotID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parking_spots WHERE id = $1)`, spotID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, repository.ErrSpotNotOccupied)
}

// Get retrieves a spot by its ID.
func (r *SpotRepo) Get(ctx context.Context, spotID int64) (*domain.Spot, error) {
	const op = "postgres.SpotRepo.Get"

	db := r.handle()

	var s domain.Spot
	err := db.QueryRow(ctx,
		`SELECT id, lot_id, spot_number, status
		   FROM parking_spots
		  WHERE id = $1`,
		spotID,
	).Scan(&s.ID, &s.LotID, &s.Number, &s.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &s, nil
}

// MaxNumber returns the highest spot number in the lot, 0 when the lot has
// no spots. Numbering continues from here when the lot grows, so numbers
// deleted out of order are never reused.
func (r *SpotRepo) MaxNumber(ctx context.Context, lotID int64) (int, error) {
	const op = "postgres.SpotRepo.MaxNumber"

	db := r.handle()

	var max int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(MAX(spot_number), 0)
		   FROM parking_spots
		  WHERE lot_id = $1`,
		lotID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return max, nil
}

// CreateRange inserts available spots numbered first..last for the lot.
func (r *SpotRepo) CreateRange(ctx context.Context, lotID int64, first, last int) error {
	const op = "postgres.SpotRepo.CreateRange"

	db := r.handle()

	batch := &pgx.Batch{}
	for n := first; n <= last; n++ {
		batch.Queue(
			`INSERT INTO parking_spots(lot_id, spot_number, status)
			 VALUES ($1, $2, 'available')`,
			lotID, n,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// DeleteHighestAvailable removes up to n available spots from the lot,
// highest spot numbers first, and returns how many were removed. The caller
// decides whether removing fewer than n is acceptable.
func (r *SpotRepo) DeleteHighestAvailable(ctx context.Context, lotID int64, n int) (int64, error) {
	const op = "postgres.SpotRepo.DeleteHighestAvailable"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM parking_spots
		  WHERE id IN (
		        SELECT id
		          FROM parking_spots
		         WHERE lot_id = $1 AND status = 'available'
		         ORDER BY spot_number DESC
		         LIMIT $2
		         FOR UPDATE
		  )`,
		lotID, n,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

// DeleteAvailable removes a single spot, refusing when it is occupied.
//
// Returns:
//   - repository.ErrNotFound if the spot does not exist.
//   - repository.ErrSpotOccupied if the spot is occupied.
func (r *SpotRepo) DeleteAvailable(ctx context.Context, spotID int64) (int64, error) {
	const op = "postgres.SpotRepo.DeleteAvailable"

	db := r.handle()

	var lotID int64
	err := db.QueryRow(ctx,
		`DELETE FROM parking_spots
		  WHERE id = $1 AND status = 'available'
		  RETURNING lot_id`,
		spotID,
	).Scan(&lotID)
	if err == nil {
		return lotID, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parking_spots WHERE id = $1)`, spotID,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if !exists {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return 0, fmt.Errorf("%s: %w", op, repository.ErrSpotOccupied)
}

// CountByLot returns the lot's spot rows bucketed by status.
func (r *SpotRepo) CountByLot(ctx context.Context, lotID int64) (*domain.LotCounts, error) {
	const op = "postgres.SpotRepo.CountByLot"

	db := r.handle()

	var c domain.LotCounts
	err := db.QueryRow(ctx,
		`SELECT
		    COALESCE(SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN status = 'occupied' THEN 1 ELSE 0 END), 0)
		   FROM parking_spots
		  WHERE lot_id = $1`,
		lotID,
	).Scan(&c.Available, &c.Occupied)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	c.Total = c.Available + c.Occupied

	return &c, nil
}
