package lots

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/parkwise/parkgo/internal/domain"
	redisx "github.com/parkwise/parkgo/internal/redis"
	"github.com/parkwise/parkgo/internal/repository"
	postgresrepo "github.com/parkwise/parkgo/internal/repository/postgres"
	redisrepo "github.com/parkwise/parkgo/internal/repository/redis"
	"github.com/parkwise/parkgo/internal/uow"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Service administers lots and their spot pools. Resizing preserves the
// occupancy invariants: the recorded capacity never drops below the number
// of occupied spots, and spot numbers are never reused.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.LotsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.LotsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// Create validates the lot parameters, inserts the lot and creates spots
// numbered 1..capacity, all available.
//
// Returns:
//   - lots.ErrInvalidInput on empty location/address, bad pincode,
//     capacity < 1 or negative price.
func (s *Service) Create(ctx context.Context, location, address, pincode string, capacity int, pricePerHour int64) (*domain.Lot, error) {
	const op = "service.lots.Create"

	if strings.TrimSpace(location) == "" || strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%s: %w: location and address are required", op, ErrInvalidInput)
	}

	if !pincodePattern.MatchString(pincode) {
		return nil, fmt.Errorf("%s: %w: pincode must be 6 digits", op, ErrInvalidInput)
	}

	if capacity < 1 {
		return nil, fmt.Errorf("%s: %w: capacity must be at least 1", op, ErrInvalidInput)
	}

	if pricePerHour < 0 {
		return nil, fmt.Errorf("%s: %w: price must not be negative", op, ErrInvalidInput)
	}

	lot := &domain.Lot{
		Location:     location,
		Address:      address,
		Pincode:      pincode,
		TotalSpots:   capacity,
		PricePerHour: pricePerHour,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		id, err := s.store.Lots().With(tx).Create(ctx, lot)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		lot.ID = id

		if err := s.store.Spots().With(tx).CreateRange(ctx, id, 1, capacity); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lot.ID)
			_ = s.pubsub.PublishLotChanged(ctx, lot.ID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return lot, nil
}

// Resize changes the lot's capacity and hourly price in one transaction.
// Growing continues numbering from the highest existing spot number, so
// numbers freed by out-of-order deletions are never reused. Shrinking
// removes available spots, highest numbers first, and fails when fewer
// available spots exist than the shrink requires. The price update applies
// only to future bookings.
//
// Returns:
//   - lots.ErrLotNotFound if the lot does not exist.
//   - lots.ErrInvalidInput on capacity < 1 or negative price.
//   - lots.ErrCapacityViolation when shrinking below current usage.
func (s *Service) Resize(ctx context.Context, lotID int64, newCapacity int, newPricePerHour int64) error {
	const op = "service.lots.Resize"

	if newCapacity < 1 {
		return fmt.Errorf("%s: %w: capacity must be at least 1", op, ErrInvalidInput)
	}

	if newPricePerHour < 0 {
		return fmt.Errorf("%s: %w: price must not be negative", op, ErrInvalidInput)
	}

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		lot, err := s.store.Lots().With(tx).GetForUpdate(ctx, lotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrLotNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		counts, err := s.store.Spots().With(tx).CountByLot(ctx, lotID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if int64(newCapacity) < counts.Occupied {
			return fmt.Errorf("%s: %w", op, ErrCapacityViolation)
		}

		switch {
		case newCapacity > lot.TotalSpots:
			max, err := s.store.Spots().With(tx).MaxNumber(ctx, lotID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			toAdd := newCapacity - lot.TotalSpots
			if err := s.store.Spots().With(tx).CreateRange(ctx, lotID, max+1, max+toAdd); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

		case newCapacity < lot.TotalSpots:
			toDelete := lot.TotalSpots - newCapacity
			deleted, err := s.store.Spots().With(tx).DeleteHighestAvailable(ctx, lotID, toDelete)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			// Fewer available spots than the shrink requires: fail and
			// roll back rather than capping silently.
			if deleted != int64(toDelete) {
				return fmt.Errorf("%s: %w", op, ErrCapacityViolation)
			}
		}

		if err := s.store.Lots().With(tx).UpdateShape(ctx, lotID, newCapacity, newPricePerHour); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lotID)
			_ = s.pubsub.PublishLotChanged(ctx, lotID)
		})

		return nil
	})
}

// Delete removes a lot and all its spots. It refuses while any spot is
// occupied. Historical bookings survive with their lot and spot references
// nulled; the snapshot fields keep them readable.
//
// Returns:
//   - lots.ErrLotNotFound if the lot does not exist.
//   - lots.ErrOccupiedSpots while vehicles are parked in the lot.
func (s *Service) Delete(ctx context.Context, lotID int64) error {
	const op = "service.lots.Delete"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if _, err := s.store.Lots().With(tx).GetForUpdate(ctx, lotID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrLotNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		counts, err := s.store.Spots().With(tx).CountByLot(ctx, lotID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if counts.Occupied > 0 {
			return fmt.Errorf("%s: %w", op, ErrOccupiedSpots)
		}

		if err := s.store.Bookings().With(tx).DetachLot(ctx, lotID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.store.Lots().With(tx).Delete(ctx, lotID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lotID)
			_ = s.pubsub.PublishLotChanged(ctx, lotID)
		})

		return nil
	})
}

// DeleteSpot removes a single available spot and recounts the lot's
// capacity so the recorded total matches the actual pool again.
//
// Returns:
//   - lots.ErrSpotNotFound if the spot does not exist.
//   - lots.ErrSpotOccupied while a vehicle is parked on it.
func (s *Service) DeleteSpot(ctx context.Context, spotID int64) error {
	const op = "service.lots.DeleteSpot"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Bookings().With(tx).DetachSpot(ctx, spotID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		lotID, err := s.store.Spots().With(tx).DeleteAvailable(ctx, spotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrSpotNotFound)
			}

			if errors.Is(err, repository.ErrSpotOccupied) {
				return fmt.Errorf("%s: %w", op, ErrSpotOccupied)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		counts, err := s.store.Spots().With(tx).CountByLot(ctx, lotID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.store.Lots().With(tx).SetTotalSpots(ctx, lotID, int(counts.Total)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lotID)
			_ = s.pubsub.PublishLotChanged(ctx, lotID)
		})

		return nil
	})
}
