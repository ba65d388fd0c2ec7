package redisx

import "fmt"

const ns = "parkgo:v1"

func KeyLotAvailability(lotID int64) string {
	return fmt.Sprintf("%s:lot:%d:availability", ns, lotID)
}

func KeyLotSpotMap(lotID int64) string {
	return fmt.Sprintf("%s:lot:%d:spotmap", ns, lotID)
}

func KeySummary() string {
	return ns + ":summary"
}

// KeyRateLimit is a limiter key prefix; the limiter appends the
// caller-specific suffix.
func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelLotsChanged() string {
	return ns + ":lots:changed"
}
