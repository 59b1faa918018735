package agent

import (
	"fmt"
	"time"
)

// realWorldContext builds the current-date preamble prepended to
// generation prompts so the model does not answer from a stale sense
// of time.
func realWorldContext(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf(`CURRENT REAL-WORLD CONTEXT:
- Current Date/Time: %s
- Day: %s
- Month: %s
- Year: %d
- Season: %s (Northern Hemisphere)
- Week of Year: %d
- Day of Year: %d`,
		now.UTC().Format("2006-01-02 15:04:05 UTC"),
		now.Weekday(),
		now.Month(),
		year,
		season(now.Month()),
		week,
		now.YearDay(),
	)
}

func season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}
