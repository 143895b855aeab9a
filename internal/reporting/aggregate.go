package reporting

import (
	"time"

	"github.com/medidesk/medidesk-platform/internal/scheduling"
)

// Pure reducers over booking collections. Everything here is deterministic,
// side-effect free, and returns zeroed buckets for empty input so dashboard
// code never special-cases "no data yet".

// CountByStatus tallies bookings per status. Every known status appears in
// the result, zero-valued when absent, so charts always have a full legend.
func CountByStatus(bookings []scheduling.Booking) map[scheduling.BookingStatus]int {
	counts := make(map[scheduling.BookingStatus]int, len(scheduling.BookingStatuses()))
	for _, status := range scheduling.BookingStatuses() {
		counts[status] = 0
	}
	for _, b := range bookings {
		if _, known := counts[b.Status]; known {
			counts[b.Status]++
		}
	}
	return counts
}

// FeeResolver maps a doctor id to their consultation fee in cents.
type FeeResolver func(doctorID int64) int64

// Revenue sums the consultation fee of exactly the Completed bookings.
// Negative fees are malformed data and contribute nothing, so the result is
// never negative.
func Revenue(bookings []scheduling.Booking, feeForDoctor FeeResolver) int64 {
	if feeForDoctor == nil {
		return 0
	}
	var total int64
	for _, b := range bookings {
		if b.Status != scheduling.BookingCompleted {
			continue
		}
		if fee := feeForDoctor(b.DoctorID); fee > 0 {
			total += fee
		}
	}
	return total
}

// EstimatedRevenue sums fees across all non-cancelled bookings. Callers must
// label the figure as an estimate; Revenue is the authoritative number.
func EstimatedRevenue(bookings []scheduling.Booking, feeForDoctor FeeResolver) int64 {
	if feeForDoctor == nil {
		return 0
	}
	var total int64
	for _, b := range bookings {
		if b.Status == scheduling.BookingCancelled || b.Status == scheduling.BookingNoShow {
			continue
		}
		if fee := feeForDoctor(b.DoctorID); fee > 0 {
			total += fee
		}
	}
	return total
}

// DayBucket is one day of booking activity for trend charts.
type DayBucket struct {
	Day       string `json:"day"` // "2006-01-02"
	Count     int    `json:"count"`
	Confirmed int    `json:"confirmed"`
	Completed int    `json:"completed"`
}

// BucketByDay groups bookings by creation day over the trailing window
// ending at end (inclusive of end's day). The result always holds exactly
// days buckets in chronological order, zero-filled where no bookings exist.
func BucketByDay(bookings []scheduling.Booking, end time.Time, days int) []DayBucket {
	if days <= 0 {
		return []DayBucket{}
	}

	endDay := time.Date(end.UTC().Year(), end.UTC().Month(), end.UTC().Day(), 0, 0, 0, 0, time.UTC)
	startDay := endDay.AddDate(0, 0, -(days - 1))

	index := make(map[string]int, days)
	out := make([]DayBucket, 0, days)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(out)
		out = append(out, DayBucket{Day: key})
	}

	for _, b := range bookings {
		key := b.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			continue
		}
		out[i].Count++
		switch b.Status {
		case scheduling.BookingConfirmed:
			out[i].Confirmed++
		case scheduling.BookingCompleted:
			out[i].Completed++
		}
	}
	return out
}

// ValueRange is a histogram band, inclusive on both ends. Max < Min marks an
// open-ended band ("20+ years").
type ValueRange struct {
	Label string
	Min   int64
	Max   int64
}

// RangeBucket is one band of a histogram distribution.
type RangeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BucketByRange counts values into the given bands in order. Values that
// fall into no band are dropped; bands never overlap-check, the first match
// wins.
func BucketByRange(values []int64, ranges []ValueRange) []RangeBucket {
	out := make([]RangeBucket, len(ranges))
	for i, r := range ranges {
		out[i] = RangeBucket{Label: r.Label}
	}
	for _, v := range values {
		for i, r := range ranges {
			if v < r.Min {
				continue
			}
			if r.Max >= r.Min && v > r.Max {
				continue
			}
			out[i].Count++
			break
		}
	}
	return out
}
