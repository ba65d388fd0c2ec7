package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parkwise/parkgo/internal/domain"
	"github.com/parkwise/parkgo/internal/repository"
	"github.com/parkwise/parkgo/internal/repository/postgres/pgtest"
)

func TestReserveLowestConcurrent(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	const capacity = 5
	lotID := pgtest.CreateLot(t, store, capacity, 50)

	var (
		mu      sync.Mutex
		numbers = make(map[int]bool)
		wg      sync.WaitGroup
	)

	wg.Add(capacity)
	for i := 0; i < capacity; i++ {
		go func() {
			defer wg.Done()

			spot, err := store.Spots().ReserveLowest(ctx, lotID)
			if err != nil {
				t.Errorf("reserve failed: %v", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if numbers[spot.Number] {
				t.Errorf("spot %d handed out twice", spot.Number)
			}
			numbers[spot.Number] = true
		}()
	}
	wg.Wait()

	// Contending callers must fill the lot exactly, never failing while
	// free spots remain because a neighbour held the lock on a lower one.
	if len(numbers) != capacity {
		t.Fatalf("expected %d distinct spots, got %d", capacity, len(numbers))
	}

	// The lot is full now.
	if _, err := store.Spots().ReserveLowest(ctx, lotID); !errors.Is(err, repository.ErrNoAvailableSpot) {
		t.Errorf("reserve on full lot: error = %v, want ErrNoAvailableSpot", err)
	}

	// An unknown lot is reported distinctly from a full one.
	if _, err := store.Spots().ReserveLowest(ctx, lotID+9999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("reserve on missing lot: error = %v, want ErrNotFound", err)
	}
}

func TestReserveReleaseCycle(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 3, 50)

	first, err := store.Spots().ReserveLowest(ctx, lotID)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if first.Number != 1 {
		t.Errorf("expected lowest spot 1, got %d", first.Number)
	}

	if err := store.Spots().Release(ctx, first.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Released spot is the lowest again, so it comes right back.
	again, err := store.Spots().ReserveLowest(ctx, lotID)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected spot %d to be reassigned, got %d", first.ID, again.ID)
	}

	// Double release is refused.
	if err := store.Spots().Release(ctx, first.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := store.Spots().Release(ctx, first.ID); !errors.Is(err, repository.ErrSpotNotOccupied) {
		t.Errorf("double release: error = %v, want ErrSpotNotOccupied", err)
	}

	if err := store.Spots().Release(ctx, first.ID+9999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("release missing spot: error = %v, want ErrNotFound", err)
	}
}

func TestGrowNumberingAfterDeletion(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 5, 50)

	// Drop spot number 3 out of order.
	spots, err := store.Query().ListSpots(ctx, lotID)
	if err != nil {
		t.Fatalf("list spots failed: %v", err)
	}
	for _, s := range spots {
		if s.Number == 3 {
			if _, err := store.Spots().DeleteAvailable(ctx, s.ID); err != nil {
				t.Fatalf("delete spot failed: %v", err)
			}
		}
	}

	// Growing continues from the highest number ever used.
	max, err := store.Spots().MaxNumber(ctx, lotID)
	if err != nil {
		t.Fatalf("max number failed: %v", err)
	}
	if max != 5 {
		t.Fatalf("expected max spot number 5, got %d", max)
	}

	if err := store.Spots().CreateRange(ctx, lotID, max+1, max+2); err != nil {
		t.Fatalf("grow failed: %v", err)
	}

	spots, err = store.Query().ListSpots(ctx, lotID)
	if err != nil {
		t.Fatalf("list spots failed: %v", err)
	}

	want := []int{1, 2, 4, 5, 6, 7}
	if len(spots) != len(want) {
		t.Fatalf("expected %d spots, got %d", len(want), len(spots))
	}
	for i, s := range spots {
		if s.Number != want[i] {
			t.Errorf("spot[%d].Number = %d, want %d", i, s.Number, want[i])
		}
	}
}

func TestDeleteAvailableRefusesOccupied(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 2, 50)

	spot, err := store.Spots().ReserveLowest(ctx, lotID)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if _, err := store.Spots().DeleteAvailable(ctx, spot.ID); !errors.Is(err, repository.ErrSpotOccupied) {
		t.Errorf("delete occupied spot: error = %v, want ErrSpotOccupied", err)
	}

	counts, err := store.Spots().CountByLot(ctx, lotID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts.Occupied != 1 || counts.Available != 1 {
		t.Errorf("counts = %+v, want 1 occupied / 1 available", counts)
	}
}

func TestBookingCloseIsIdempotentGuarded(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 1, 50)

	spot, err := store.Spots().ReserveLowest(ctx, lotID)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	b := &domain.Booking{
		ID:           uuid.New(),
		UserID:       7,
		Vehicle:      "KA01AB1234",
		LotID:        &lotID,
		SpotID:       &spot.ID,
		SpotNumber:   spot.Number,
		EntryTime:    time.Now().UTC().Add(-90 * time.Minute),
		PricePerHour: 50,
		LotLocation:  "Downtown",
		LotAddress:   "12 Main St",
		LotPincode:   "560001",
	}
	if err := store.Bookings().Insert(ctx, b); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	exit := time.Now().UTC()
	if err := store.Bookings().Close(ctx, b.ID, exit, 100); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if err := store.Bookings().Close(ctx, b.ID, exit, 100); !errors.Is(err, repository.ErrBookingClosed) {
		t.Errorf("second close: error = %v, want ErrBookingClosed", err)
	}

	if err := store.Bookings().Close(ctx, uuid.New(), exit, 100); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("close missing booking: error = %v, want ErrNotFound", err)
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Open() {
		t.Error("booking should be closed")
	}
	if got.TotalAmount == nil || *got.TotalAmount != 100 {
		t.Errorf("total amount = %v, want 100", got.TotalAmount)
	}
}

func TestDetachLotKeepsSnapshots(t *testing.T) {
	store := pgtest.Setup(t)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 1, 50)

	spot, err := store.Spots().ReserveLowest(ctx, lotID)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	b := &domain.Booking{
		ID:           uuid.New(),
		UserID:       7,
		Vehicle:      "KA01AB1234",
		LotID:        &lotID,
		SpotID:       &spot.ID,
		SpotNumber:   spot.Number,
		EntryTime:    time.Now().UTC(),
		PricePerHour: 50,
		LotLocation:  "Downtown",
		LotAddress:   "12 Main St",
		LotPincode:   "560001",
	}
	if err := store.Bookings().Insert(ctx, b); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := store.Spots().Release(ctx, spot.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if err := store.Bookings().DetachLot(ctx, lotID); err != nil {
		t.Fatalf("detach failed: %v", err)
	}
	if err := store.Lots().Delete(ctx, lotID); err != nil {
		t.Fatalf("delete lot failed: %v", err)
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if got.LotID != nil || got.SpotID != nil {
		t.Errorf("expected nulled references, got lot=%v spot=%v", got.LotID, got.SpotID)
	}
	if got.LotLocation != "Downtown" || got.LotAddress != "12 Main St" || got.LotPincode != "560001" {
		t.Errorf("snapshot fields lost: %+v", got)
	}
	if got.SpotNumber != spot.Number {
		t.Errorf("spot number snapshot = %d, want %d", got.SpotNumber, spot.Number)
	}
}
