package checkout

import (
	"time"

	"github.com/noah-isme/paygw-stripe/internal/gateway"
)

// PeriodBounds computes the natural billing period containing now for an
// anchored subscription: the period start and the next period boundary, both
// at midnight UTC. A purchase mid-period is backdated to the period start and
// anchored to the next boundary so every subscriber renews on the same day.
func PeriodBounds(now time.Time, cfg gateway.Config) (start, next time.Time) {
	now = now.UTC()
	rec := cfg.Recurrence()
	switch cfg.SubscriptionInterval {
	case gateway.IntervalDaily:
		start = midnight(now)
	case gateway.IntervalWeekly:
		start = startOfWeek(now)
	case gateway.IntervalMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case gateway.IntervalEvery3Months, gateway.IntervalEvery6Months:
		span := int(rec.Count)
		block := (int(now.Month()) - 1) / span * span
		start = time.Date(now.Year(), time.Month(block+1), 1, 0, 0, 0, 0, time.UTC)
	case gateway.IntervalYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case gateway.IntervalCustom:
		start = customPeriodStart(now, rec)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return start, advance(start, rec)
}

// TrialEnd returns the subscription trial boundary, or the zero time when the
// first interval is charged. Anchored subscriptions get the first interval
// free until the next natural boundary; unanchored ones get one full interval
// from the time of purchase.
func TrialEnd(now time.Time, cfg gateway.Config) time.Time {
	if !cfg.FirstIntervalFree {
		return time.Time{}
	}
	now = now.UTC()
	if cfg.AnchoredBilling {
		_, next := PeriodBounds(now, cfg)
		return next
	}
	return advance(now, cfg.Recurrence())
}

func advance(t time.Time, rec gateway.Recurrence) time.Time {
	count := int(rec.Count)
	if count < 1 {
		count = 1
	}
	switch rec.Unit {
	case "day":
		return t.AddDate(0, 0, count)
	case "week":
		return t.AddDate(0, 0, 7*count)
	case "month":
		return t.AddDate(0, count, 0)
	case "year":
		return t.AddDate(count, 0, 0)
	default:
		return t.AddDate(0, count, 0)
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfWeek(t time.Time) time.Time {
	day := midnight(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday start
	return day.AddDate(0, 0, -offset)
}

func customPeriodStart(now time.Time, rec gateway.Recurrence) time.Time {
	switch rec.Unit {
	case "day":
		return midnight(now)
	case "week":
		return startOfWeek(now)
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return midnight(now)
	}
}
