package booking

import "time"

// BillableHours converts elapsed time to whole billed hours, rounding up.
// Zero or negative elapsed time (clock skew) bills a minimum of one hour;
// that floor is a business rule, not defensive rounding.
func BillableHours(entry, exit time.Time) int64 {
	secs := exit.Sub(entry).Seconds()

	hours := int64(secs / 3600)
	if float64(hours*3600) < secs {
		hours++
	}

	if hours < 1 {
		hours = 1
	}

	return hours
}

// ComputeFee prices the stay: billable hours times the hourly price
// snapshotted when the booking was opened.
func ComputeFee(entry, exit time.Time, pricePerHour int64) (hours, amount int64) {
	hours = BillableHours(entry, exit)
	return hours, hours * pricePerHour
}
