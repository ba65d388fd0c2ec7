package redis

import "testing"

func TestKeyIdemBookingScopedPerUser(t *testing.T) {
	a := KeyIdemBooking(1, 42, "retry-abc")
	b := KeyIdemBooking(2, 42, "retry-abc")

	// Two users reusing the same header value on the same lot must not
	// collide on one stored result.
	if a == b {
		t.Errorf("keys for different users collide: %q", a)
	}

	if got := KeyIdemBooking(1, 42, "retry-abc"); got != a {
		t.Errorf("key not deterministic: %q vs %q", got, a)
	}

	if c := KeyIdemBooking(1, 43, "retry-abc"); c == a {
		t.Errorf("keys for different lots collide: %q", a)
	}
}
