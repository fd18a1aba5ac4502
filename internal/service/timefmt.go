package service

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// timeAgo renders a relative-time label for display. Purely presentational.
func timeAgo(now, t time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff.Minutes())

	if minutes < 1 {
		return "just now"
	}
	if minutes == 1 {
		return "1 min ago"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}

	hours := minutes / 60
	if hours == 1 {
		return "1 hour ago"
	}
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := hours / 24
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

// humanDuration renders a duration as "N hour(s) and M minute(s)", rounding
// up to whole minutes, for the too-early/too-late rejection messages.
func humanDuration(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	hours := minutes / 60
	mins := minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%s and %s", plural(hours, "hour"), plural(mins, "minute"))
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// initials builds the display initials for a bidder name; "UN" stands in
// when the name is unknown.
func initials(name string) string {
	if name == "" {
		return "UN"
	}
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		runes := []rune(part)
		b.WriteString(strings.ToUpper(string(runes[0])))
	}
	if b.Len() == 0 {
		return "UN"
	}
	return b.String()
}
