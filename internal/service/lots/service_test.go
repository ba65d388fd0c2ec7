package lots

import (
	"context"
	"errors"
	"testing"
)

func TestCreateValidation(t *testing.T) {
	// All of these fail validation before the store is touched.
	svc := New(nil, nil, nil)

	tests := []struct {
		name     string
		location string
		address  string
		pincode  string
		capacity int
		price    int64
	}{
		{"empty location", "", "12 Main St", "560001", 5, 50},
		{"blank address", "Downtown", "   ", "560001", 5, 50},
		{"short pincode", "Downtown", "12 Main St", "5600", 5, 50},
		{"alphabetic pincode", "Downtown", "12 Main St", "56OO01", 5, 50},
		{"zero capacity", "Downtown", "12 Main St", "560001", 0, 50},
		{"negative capacity", "Downtown", "12 Main St", "560001", -3, 50},
		{"negative price", "Downtown", "12 Main St", "560001", 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.location, tt.address, tt.pincode, tt.capacity, tt.price)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Create() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestResizeValidation(t *testing.T) {
	svc := New(nil, nil, nil)

	if err := svc.Resize(context.Background(), 1, 0, 50); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Resize to capacity 0: error = %v, want ErrInvalidInput", err)
	}

	if err := svc.Resize(context.Background(), 1, 5, -10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Resize with negative price: error = %v, want ErrInvalidInput", err)
	}
}
