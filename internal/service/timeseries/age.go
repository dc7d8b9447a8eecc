package timeseries

import "fmt"

// FormatAge renders an age in days the way colony cards show it.
func FormatAge(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return plural(days/30, "month")
	default:
		years := days / 365
		months := (days % 365) / 30
		return plural(years, "year") + ", " + plural(months, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
