package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/parkwise/parkgo/internal/repository/postgres/pgtest"
)

func TestReserveAndRelease(t *testing.T) {
	store := pgtest.Setup(t)
	svc := New(store, nil, nil)
	ctx := context.Background()

	lotID := pgtest.CreateLot(t, store, 2, 50)

	first, err := svc.Reserve(ctx, lotID)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if first.Number != 1 {
		t.Errorf("expected lowest spot 1, got %d", first.Number)
	}

	second, err := svc.Reserve(ctx, lotID)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if second.Number != 2 {
		t.Errorf("expected spot 2, got %d", second.Number)
	}

	if _, err := svc.Reserve(ctx, lotID); !errors.Is(err, ErrNoAvailableSpot) {
		t.Errorf("reserve on full lot: error = %v, want ErrNoAvailableSpot", err)
	}

	if err := svc.Release(ctx, first.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Double release is the caller's bug and is reported, not absorbed.
	if err := svc.Release(ctx, first.ID); !errors.Is(err, ErrAlreadyAvailable) {
		t.Errorf("double release: error = %v, want ErrAlreadyAvailable", err)
	}

	if err := svc.Release(ctx, first.ID+9999); !errors.Is(err, ErrSpotNotFound) {
		t.Errorf("release missing spot: error = %v, want ErrSpotNotFound", err)
	}

	if _, err := svc.Reserve(ctx, lotID+9999); !errors.Is(err, ErrLotNotFound) {
		t.Errorf("reserve on missing lot: error = %v, want ErrLotNotFound", err)
	}
}
