package linebalance

import (
	"time"

	"github.com/samber/lo"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

// MeanCycleTime is the arithmetic mean of the samples, or 0 when they sum to 0.
func MeanCycleTime(samples []float64) float64 {
	sum := lo.Sum(samples)
	if sum == 0 {
		return 0
	}
	return sum / float64(len(samples))
}

// PlaceholderSamples is the sample sequence of a station not measured yet.
func PlaceholderSamples() []float64 {
	return []float64{0}
}

// ISOWeek parses a YYYY-MM-DD date and returns its ISO 8601 week number.
func ISOWeek(strDate string) (int, error) {
	t, err := time.Parse(constant.DateLayout, strDate)
	if err != nil {
		return 0, apperr.ErrInvalidReq.Msg("invalid date %q: expected format YYYY-MM-DD", strDate)
	}
	_, week := t.ISOWeek()
	return week, nil
}
