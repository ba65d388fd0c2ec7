package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/parkwise/parkgo/internal/domain"
	redisx "github.com/parkwise/parkgo/internal/redis"
	"github.com/parkwise/parkgo/internal/repository"
	postgresrepo "github.com/parkwise/parkgo/internal/repository/postgres"
	redisrepo "github.com/parkwise/parkgo/internal/repository/redis"
	"github.com/parkwise/parkgo/internal/uow"
)

// Service is the spot allocator. It hands out the lowest-numbered
// available spot of a lot and takes spots back on release; per spot there
// is at most one owner at any time.
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

// Reserve assigns the lowest-numbered available spot in the lot inside its
// own transaction.
//
// Returns:
//   - allocation.ErrLotNotFound if the lot does not exist.
//   - allocation.ErrNoAvailableSpot if the lot is full.
func (s *Service) Reserve(ctx context.Context, lotID int64) (*domain.Spot, error) {
	const op = "service.allocation.Reserve"

	var spot *domain.Spot

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		spot, err = s.ReserveIn(ctx, tx, lotID)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lotID)
			_ = s.pubsub.PublishLotChanged(ctx, lotID)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spot, nil
}

// ReserveIn is Reserve running on an already-open transaction, for callers
// that combine the reservation with further writes.
func (s *Service) ReserveIn(ctx context.Context, tx postgresrepo.DB, lotID int64) (*domain.Spot, error) {
	const op = "service.allocation.ReserveIn"

	spot, err := s.store.Spots().With(tx).ReserveLowest(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrLotNotFound)
		}

		if errors.Is(err, repository.ErrNoAvailableSpot) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoAvailableSpot)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spot, nil
}

// Release transitions an occupied spot back to available inside its own
// transaction. Releasing an already-available spot is an error; the caller
// must not double-release.
//
// Returns:
//   - allocation.ErrSpotNotFound if the spot does not exist.
//   - allocation.ErrAlreadyAvailable if the spot is not occupied.
func (s *Service) Release(ctx context.Context, spotID int64) error {
	const op = "service.allocation.Release"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		spot, err := s.store.Spots().With(tx).Get(ctx, spotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrSpotNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.ReleaseIn(ctx, tx, spotID); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, spot.LotID)
			_ = s.pubsub.PublishLotChanged(ctx, spot.LotID)
		})

		return nil
	})

	return err
}

// ReleaseIn is Release running on an already-open transaction.
func (s *Service) ReleaseIn(ctx context.Context, tx postgresrepo.DB, spotID int64) error {
	const op = "service.allocation.ReleaseIn"

	if err := s.store.Spots().With(tx).Release(ctx, spotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrSpotNotFound)
		}

		if errors.Is(err, repository.ErrSpotNotOccupied) {
			return fmt.Errorf("%s: %w", op, ErrAlreadyAvailable)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
