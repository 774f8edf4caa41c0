package utils

import (
	"fmt"
	"math"
	"regexp"
)

var paceRe = regexp.MustCompile(`^\d{1,2}:[0-5]\d$`)

// ValidPace reports whether p looks like "m:ss" (seconds zero-padded).
func ValidPace(p string) bool {
	return paceRe.MatchString(p)
}

// FormatPace renders a whole number of minutes and seconds as "m:ss".
func FormatPace(minutes, seconds int) string {
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PaceFromDuration returns the per-mile pace for covering miles in
// totalSeconds, rounded to the nearest second.
func PaceFromDuration(totalSeconds, miles float64) string {
	if miles <= 0 || totalSeconds <= 0 || math.IsNaN(totalSeconds) || math.IsNaN(miles) {
		return FormatPace(0, 0)
	}
	perMile := int(math.Round(totalSeconds / miles))
	return FormatPace(perMile/60, perMile%60)
}

// RoundTenth rounds v to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
