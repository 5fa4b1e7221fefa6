package stats

import "fmt"

// Days in 400 Gregorian years and months in the same period; the ratio converts
// between days and months without a reference date.
const (
	daysPer400Years   = 146097
	monthsPer400Years = 4800
)

// FormatMinutes renders a minute count as "1Y 2M 3d 4h 5m".
// Whole days are folded into months by the average Gregorian month length and
// months into years, so the output does not depend on a calendar position.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}

	mins := minutes % 60
	hours := minutes / 60
	days := hours / 24
	hours %= 24

	months := days * monthsPer400Years / daysPer400Years
	days -= (months*daysPer400Years + monthsPer400Years - 1) / monthsPer400Years
	years := months / 12
	months %= 12

	return fmt.Sprintf("%dY %dM %dd %dh %dm", years, months, days, hours, mins)
}
