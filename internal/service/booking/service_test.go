package booking

import (
	"context"
	"errors"
	"testing"
)

func TestOpenRejectsInvalidVehicle(t *testing.T) {
	// Validation runs before any store access, so a zero-dependency
	// service is enough here.
	svc := New(nil, nil, nil, nil, nil)

	tests := []struct {
		name    string
		vehicle string
		wantErr bool
	}{
		{"valid plain", "KA01AB1234", false},
		{"valid minimum length", "AB12", false},
		{"valid maximum length", "ABCDEFGHIJ12345", false},
		{"too short", "AB1", true},
		{"too long", "ABCDEFGHIJ123456", true},
		{"empty", "", true},
		{"whitespace", "KA01 AB1234", true},
		{"punctuation", "KA-01-AB-1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				_, err := svc.Open(context.Background(), 1, 1, tt.vehicle, "")
				if !errors.Is(err, ErrInvalidVehicle) {
					t.Errorf("Open(%q) error = %v, want ErrInvalidVehicle", tt.vehicle, err)
				}
				return
			}

			if !vehiclePattern.MatchString(tt.vehicle) {
				t.Errorf("vehicle %q should be accepted", tt.vehicle)
			}
		})
	}
}
