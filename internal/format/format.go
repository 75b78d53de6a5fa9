// Package format renders workout and run numbers for display and parses
// user-entered durations.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Duration renders seconds as "1h 5m", "5m 3s" or "42s".
func Duration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// Clock renders seconds as "1:05:03" or "5:03".
func Clock(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// PaceShort renders seconds per kilometre as "5:03".
func PaceShort(secondsPerKm float64) string {
	m := int(math.Floor(secondsPerKm / 60))
	s := int(math.Round(math.Mod(secondsPerKm, 60)))
	if s == 60 {
		m, s = m+1, 0
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Pace renders seconds per kilometre as "5:03 /km".
func Pace(secondsPerKm float64) string {
	return PaceShort(secondsPerKm) + " /km"
}

// Volume renders kilograms lifted as "950 kg" or "4.2k kg".
func Volume(kg float64) string {
	if kg >= 1000 {
		return fmt.Sprintf("%.1fk kg", kg/1000)
	}
	return fmt.Sprintf("%.0f kg", kg)
}

// Distance renders metres as "800 m" or "5.00 km".
func Distance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return strconv.FormatFloat(meters, 'f', -1, 64) + " m"
}

// CalculatePace returns seconds per kilometre, or 0 for zero distance.
func CalculatePace(distanceMeters float64, durationSeconds int) float64 {
	if distanceMeters == 0 {
		return 0
	}
	return float64(durationSeconds) * 1000 / distanceMeters
}

// ParseDuration parses "30" (minutes), "30:00" (m:s) or "1:30:00" (h:m:s)
// into seconds. Anything else yields 0.
func ParseDuration(input string) int {
	parts := strings.Split(strings.TrimSpace(input), ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 1:
		return nums[0] * 60
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	}
	return 0
}
