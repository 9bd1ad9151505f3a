package media

import (
	"time"

	"github.com/shopspring/decimal"
)

var nanosPerSecond = decimal.NewFromInt(int64(time.Second))

// ParseSeconds converts a decimal-seconds wire value (e.g. "12.480") into a
// duration without accumulating float error.
func ParseSeconds(value string) (time.Duration, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(d.Mul(nanosPerSecond).IntPart()), nil
}

// FormatSeconds renders a duration as decimal seconds with millisecond
// precision, the form used in plan JSON and collaborator payloads.
func FormatSeconds(d time.Duration) string {
	return decimal.NewFromInt(int64(d)).Div(nanosPerSecond).Round(3).StringFixed(3)
}

// Seconds converts a float seconds value into a duration, rounding to the
// nearest millisecond to keep event boundaries stable across runs.
func Seconds(v float64) time.Duration {
	return time.Duration(decimal.NewFromFloat(v).Mul(nanosPerSecond).IntPart()).Round(time.Millisecond)
}
