package gateway

// Interval names a recurring billing cadence.
type Interval string

const (
	IntervalDaily        Interval = "daily"
	IntervalWeekly       Interval = "weekly"
	IntervalMonthly      Interval = "monthly"
	IntervalEvery3Months Interval = "every3months"
	IntervalEvery6Months Interval = "every6months"
	IntervalYearly       Interval = "yearly"
	IntervalCustom       Interval = "custom"
)

// Recurrence is the processor-facing representation of an interval: a unit
// (day, week, month, year) and a count of units per billing period.
type Recurrence struct {
	Unit  string
	Count int64
}

// Recurrence resolves the interval into a processor unit and count. Custom
// intervals take their unit and count from the account configuration.
func (c Config) Recurrence() Recurrence {
	switch c.SubscriptionInterval {
	case IntervalDaily:
		return Recurrence{Unit: "day", Count: 1}
	case IntervalWeekly:
		return Recurrence{Unit: "week", Count: 1}
	case IntervalMonthly:
		return Recurrence{Unit: "month", Count: 1}
	case IntervalEvery3Months:
		return Recurrence{Unit: "month", Count: 3}
	case IntervalEvery6Months:
		return Recurrence{Unit: "month", Count: 6}
	case IntervalYearly:
		return Recurrence{Unit: "year", Count: 1}
	case IntervalCustom:
		count := int64(c.CustomIntervalCount)
		if count < 1 {
			count = 1
		}
		return Recurrence{Unit: c.CustomIntervalUnit, Count: count}
	default:
		return Recurrence{Unit: "month", Count: 1}
	}
}
