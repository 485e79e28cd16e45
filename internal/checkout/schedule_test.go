package checkout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paygw-stripe/internal/checkout"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodBoundsMonthly(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalMonthly}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.March, 1), start)
	require.Equal(t, date(2026, time.April, 1), next)
}

func TestPeriodBoundsWeeklyStartsMonday(t *testing.T) {
	// 2026-03-11 is a Wednesday.
	now := time.Date(2026, time.March, 11, 23, 59, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalWeekly}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.March, 9), start)
	require.Equal(t, time.Monday, start.Weekday())
	require.Equal(t, date(2026, time.March, 16), next)
}

func TestPeriodBoundsDaily(t *testing.T) {
	now := time.Date(2026, time.March, 15, 18, 0, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalDaily}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.March, 15), start)
	require.Equal(t, date(2026, time.March, 16), next)
}

func TestPeriodBoundsQuarterly(t *testing.T) {
	now := time.Date(2026, time.May, 20, 8, 0, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalEvery3Months}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.April, 1), start)
	require.Equal(t, date(2026, time.July, 1), next)
}

func TestPeriodBoundsHalfYearly(t *testing.T) {
	now := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalEvery6Months}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.July, 1), start)
	require.Equal(t, date(2027, time.January, 1), next)
}

func TestPeriodBoundsYearly(t *testing.T) {
	now := time.Date(2026, time.November, 30, 12, 0, 0, 0, time.UTC)
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalYearly}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.January, 1), start)
	require.Equal(t, date(2027, time.January, 1), next)
}

func TestPeriodBoundsCustomTwoMonths(t *testing.T) {
	now := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
	cfg := gateway.Config{
		SubscriptionInterval: gateway.IntervalCustom,
		CustomIntervalUnit:   "month",
		CustomIntervalCount:  2,
	}

	start, next := checkout.PeriodBounds(now, cfg)
	require.Equal(t, date(2026, time.March, 1), start)
	require.Equal(t, date(2026, time.May, 1), next)
}

func TestTrialEndZeroWhenFirstIntervalCharged(t *testing.T) {
	cfg := gateway.Config{SubscriptionInterval: gateway.IntervalMonthly}
	require.True(t, checkout.TrialEnd(time.Now(), cfg).IsZero())
}

func TestTrialEndAnchoredRunsToNextBoundary(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	cfg := gateway.Config{
		SubscriptionInterval: gateway.IntervalMonthly,
		AnchoredBilling:      true,
		FirstIntervalFree:    true,
	}
	require.Equal(t, date(2026, time.April, 1), checkout.TrialEnd(now, cfg))
}

func TestTrialEndUnanchoredIsOneFullInterval(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	cfg := gateway.Config{
		SubscriptionInterval: gateway.IntervalMonthly,
		FirstIntervalFree:    true,
	}
	require.Equal(t, now.AddDate(0, 1, 0), checkout.TrialEnd(now, cfg))
}
