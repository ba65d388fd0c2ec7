package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/parkwise/parkgo/internal/domain"
	redisx "github.com/parkwise/parkgo/internal/redis"
	"github.com/parkwise/parkgo/internal/repository"
	postgresrepo "github.com/parkwise/parkgo/internal/repository/postgres"
	redisrepo "github.com/parkwise/parkgo/internal/repository/redis"
	"github.com/parkwise/parkgo/internal/service/allocation"
	"github.com/parkwise/parkgo/internal/uow"
)

var vehiclePattern = regexp.MustCompile(`^[A-Za-z0-9]{4,15}$`)

// Service is the booking lifecycle manager. A booking has exactly two
// states: open (exit time null) and closed (exit time and amount set).
type Service struct {
	store   *postgresrepo.Store
	alloc   *allocation.Service
	cache   *redisrepo.Cache
	pubsub  *redisx.LotsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	now     func() time.Time
}

func New(
	store *postgresrepo.Store,
	alloc *allocation.Service,
	cache *redisrepo.Cache,
	pubsub *redisx.LotsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		alloc:   alloc,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
		now:     time.Now,
	}
}

// Open reserves a spot in the lot and creates an open booking carrying a
// snapshot of the lot's price and address. On any failure nothing is
// written: the vehicle number is validated before the store is touched,
// and the reservation and booking insert share one transaction.
//
// Returns:
//   - booking.ErrInvalidVehicle if the vehicle number is malformed.
//   - booking.ErrLotNotFound if the lot does not exist.
//   - booking.ErrNoAvailableSpot if the lot is full.
//   - booking.ErrRateLimited if the caller exceeded the booking rate.
func (s *Service) Open(ctx context.Context, lotID, userID int64, vehicle string, rlKey string) (*domain.Booking, error) {
	const op = "service.booking.Open"

	if !vehiclePattern.MatchString(vehicle) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidVehicle)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w, retry in %s", op, ErrRateLimited, retry)
		}
	}

	var b *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		lot, err := s.store.Lots().With(tx).Get(ctx, lotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrLotNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		spot, err := s.alloc.ReserveIn(ctx, tx, lotID)
		if err != nil {
			if errors.Is(err, allocation.ErrNoAvailableSpot) {
				return fmt.Errorf("%s: %w", op, ErrNoAvailableSpot)
			}

			if errors.Is(err, allocation.ErrLotNotFound) {
				return fmt.Errorf("%s: %w", op, ErrLotNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		b = &domain.Booking{
			ID:           uuid.New(),
			UserID:       userID,
			Vehicle:      vehicle,
			LotID:        &lot.ID,
			SpotID:       &spot.ID,
			SpotNumber:   spot.Number,
			EntryTime:    s.now().UTC(),
			PricePerHour: lot.PricePerHour,
			LotLocation:  lot.Location,
			LotAddress:   lot.Address,
			LotPincode:   lot.Pincode,
		}

		if err := s.store.Bookings().With(tx).Insert(ctx, b); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateLot(ctx, lotID)
			_ = s.pubsub.PublishLotChanged(ctx, lotID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Close finalizes an open booking: computes the fee from the snapshotted
// hourly price, stamps the exit time and releases the spot. When the spot
// was administratively deleted while the booking stayed open the release
// is skipped and the fee is still charged.
//
// Returns:
//   - booking.ErrBookingNotFound if the booking does not exist.
//   - booking.ErrNotOwner if the caller neither owns the booking nor is admin.
//   - booking.ErrAlreadyClosed on a second close.
func (s *Service) Close(ctx context.Context, bookingID uuid.UUID, callerUserID int64, isAdmin bool) (*domain.Receipt, error) {
	const op = "service.booking.Close"

	var receipt *domain.Receipt

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		b, err := s.store.Bookings().With(tx).GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if b.UserID != callerUserID && !isAdmin {
			return fmt.Errorf("%s: %w", op, ErrNotOwner)
		}

		if !b.Open() {
			return fmt.Errorf("%s: %w", op, ErrAlreadyClosed)
		}

		exit := s.now().UTC()
		hours, amount := ComputeFee(b.EntryTime, exit, b.PricePerHour)

		if err := s.store.Bookings().With(tx).Close(ctx, bookingID, exit, amount); err != nil {
			if errors.Is(err, repository.ErrBookingClosed) {
				return fmt.Errorf("%s: %w", op, ErrAlreadyClosed)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if b.SpotID != nil {
			if err := s.alloc.ReleaseIn(ctx, tx, *b.SpotID); err != nil {
				// The spot may be gone while the booking stayed open.
				if !errors.Is(err, allocation.ErrSpotNotFound) {
					return fmt.Errorf("%s: %w", op, err)
				}
			}
		}

		receipt = &domain.Receipt{
			BookingID: bookingID,
			Hours:     hours,
			Amount:    amount,
			ExitTime:  exit,
		}

		if b.LotID != nil {
			lotID := *b.LotID
			after(func(ctx context.Context) {
				_ = s.cache.InvalidateLot(ctx, lotID)
				_ = s.pubsub.PublishLotChanged(ctx, lotID)
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// Get retrieves a booking, restricted to its owner unless the caller is
// admin.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID, callerUserID int64, isAdmin bool) (*domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.UserID != callerUserID && !isAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	return b, nil
}
