package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parkwise/parkgo/internal/domain"
	redisx "github.com/parkwise/parkgo/internal/redis"
	"github.com/parkwise/parkgo/internal/repository"
	postgresrepo "github.com/parkwise/parkgo/internal/repository/postgres"
	redisrepo "github.com/parkwise/parkgo/internal/repository/redis"
)

type Config struct {
	AvailabilityTTL time.Duration
	SummaryTTL      time.Duration
}

// Service is the read side: occupancy views, lot search and reporting.
// Hot counters are cached in redis and invalidated by the write services'
// after-commit hooks.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Second
	}

	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = 30 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetLot retrieves a lot by ID.
//
// Returns:
//   - query.ErrLotNotFound if the lot does not exist.
func (s *Service) GetLot(ctx context.Context, lotID int64) (*domain.Lot, error) {
	const op = "service.query.GetLot"

	lot, err := s.store.Lots().Get(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrLotNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lot, nil
}

// ListLots lists lots filtered by location substring and exact pincode.
func (s *Service) ListLots(ctx context.Context, location, pincode string, limit, offset int) ([]domain.Lot, error) {
	const op = "service.query.ListLots"

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	out, err := s.store.Query().ListLots(ctx, location, pincode, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Availability returns the lot's occupancy counters, cached briefly.
//
// Returns:
//   - query.ErrLotNotFound if the lot does not exist.
func (s *Service) Availability(ctx context.Context, lotID int64) (*domain.LotCounts, error) {
	const op = "service.query.Availability"

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyLotAvailability(lotID),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (*domain.LotCounts, error) {
			if _, err := s.store.Lots().Get(ctx, lotID); err != nil {
				return nil, err
			}

			return s.store.Spots().CountByLot(ctx, lotID)
		},
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrLotNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}

// ListSpots lists the lot's spots in spot-number order.
//
// Returns:
//   - query.ErrLotNotFound if the lot does not exist.
func (s *Service) ListSpots(ctx context.Context, lotID int64) ([]domain.Spot, error) {
	const op = "service.query.ListSpots"

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyLotSpotMap(lotID),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) ([]domain.Spot, error) {
			if _, err := s.store.Lots().Get(ctx, lotID); err != nil {
				return nil, err
			}

			return s.store.Query().ListSpots(ctx, lotID)
		},
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrLotNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SpotDetail returns the spot and, when it is occupied, the open booking
// parked on it.
//
// Returns:
//   - query.ErrSpotNotFound if the spot does not exist.
func (s *Service) SpotDetail(ctx context.Context, spotID int64) (*domain.Spot, *domain.Booking, error) {
	const op = "service.query.SpotDetail"

	spot, err := s.store.Spots().Get(ctx, spotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrSpotNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if spot.Status != domain.SpotOccupied {
		return spot, nil, nil
	}

	b, err := s.store.Query().ActiveBookingBySpot(ctx, spotID)
	if err != nil {
		// An occupied spot without an open booking would be an invariant
		// breach; surface the spot anyway.
		if errors.Is(err, repository.ErrNotFound) {
			return spot, nil, nil
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return spot, b, nil
}

// UserBookings lists the user's bookings, newest first.
func (s *Service) UserBookings(ctx context.Context, userID int64, openOnly bool, limit, offset int) ([]domain.Booking, error) {
	const op = "service.query.UserBookings"

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	out, err := s.store.Query().ListBookingsByUser(ctx, userID, openOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Summary returns the system-wide occupancy report, cached briefly.
func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	const op = "service.query.Summary"

	sum, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeySummary(),
		s.cfg.SummaryTTL,
		func(ctx context.Context) (*domain.Summary, error) {
			return s.store.Query().Summary(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sum, nil
}
