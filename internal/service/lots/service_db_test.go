package lots

import (
	"context"
	"errors"
	"testing"

	"github.com/parkwise/parkgo/internal/repository/postgres/pgtest"
)

func TestResizeBelowOccupancyFails(t *testing.T) {
	store := pgtest.Setup(t)
	svc := New(store, nil, nil)
	ctx := context.Background()

	lot, err := svc.Create(ctx, "Downtown", "12 Main St", "560001", 3, 50)
	if err != nil {
		t.Fatalf("create lot failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := store.Spots().ReserveLowest(ctx, lot.ID); err != nil {
			t.Fatalf("reserve failed: %v", err)
		}
	}

	// Shrinking below the occupied count is refused no matter how many
	// available spots there are.
	if err := svc.Resize(ctx, lot.ID, 1, 50); !errors.Is(err, ErrCapacityViolation) {
		t.Errorf("resize below occupancy: error = %v, want ErrCapacityViolation", err)
	}

	counts, err := store.Spots().CountByLot(ctx, lot.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts.Total != 3 || counts.Occupied != 2 {
		t.Errorf("spot pool changed by failed resize: %+v", counts)
	}
}

func TestResizeShrinkPastAvailableRollsBack(t *testing.T) {
	store := pgtest.Setup(t)
	svc := New(store, nil, nil)
	ctx := context.Background()

	lot, err := svc.Create(ctx, "Downtown", "12 Main St", "560001", 3, 50)
	if err != nil {
		t.Fatalf("create lot failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := store.Spots().ReserveLowest(ctx, lot.ID); err != nil {
			t.Fatalf("reserve failed: %v", err)
		}
	}

	// Inflate the recorded capacity so the shrink to 3 asks for two
	// deletions while only one spot is available.
	if err := store.Lots().SetTotalSpots(ctx, lot.ID, 5); err != nil {
		t.Fatalf("set total spots failed: %v", err)
	}

	if err := svc.Resize(ctx, lot.ID, 3, 50); !errors.Is(err, ErrCapacityViolation) {
		t.Errorf("shrink past available: error = %v, want ErrCapacityViolation", err)
	}

	// The partial deletion must have rolled back.
	counts, err := store.Spots().CountByLot(ctx, lot.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts.Total != 3 || counts.Available != 1 {
		t.Errorf("spot pool changed by rolled-back resize: %+v", counts)
	}

	got, err := store.Lots().Get(ctx, lot.ID)
	if err != nil {
		t.Fatalf("get lot failed: %v", err)
	}
	if got.TotalSpots != 5 {
		t.Errorf("recorded capacity = %d, want 5 after rollback", got.TotalSpots)
	}
}

func TestResizeGrowAndShrink(t *testing.T) {
	store := pgtest.Setup(t)
	svc := New(store, nil, nil)
	ctx := context.Background()

	lot, err := svc.Create(ctx, "Downtown", "12 Main St", "560001", 2, 50)
	if err != nil {
		t.Fatalf("create lot failed: %v", err)
	}

	if err := svc.Resize(ctx, lot.ID, 4, 60); err != nil {
		t.Fatalf("grow failed: %v", err)
	}

	if _, err := store.Spots().ReserveLowest(ctx, lot.ID); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Shrinking removes the highest-numbered available spots.
	if err := svc.Resize(ctx, lot.ID, 2, 60); err != nil {
		t.Fatalf("shrink failed: %v", err)
	}

	spots, err := store.Query().ListSpots(ctx, lot.ID)
	if err != nil {
		t.Fatalf("list spots failed: %v", err)
	}

	want := []int{1, 2}
	if len(spots) != len(want) {
		t.Fatalf("expected %d spots, got %d", len(want), len(spots))
	}
	for i, s := range spots {
		if s.Number != want[i] {
			t.Errorf("spot[%d].Number = %d, want %d", i, s.Number, want[i])
		}
	}

	got, err := store.Lots().Get(ctx, lot.ID)
	if err != nil {
		t.Fatalf("get lot failed: %v", err)
	}
	if got.TotalSpots != 2 || got.PricePerHour != 60 {
		t.Errorf("lot shape = %d spots @ %d, want 2 @ 60", got.TotalSpots, got.PricePerHour)
	}
}
