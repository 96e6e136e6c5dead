package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var retentionUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// ParseRetention converts a retention window into a duration. It accepts Go
// duration strings ("90m", "2h30m") as well as "<n> <unit>" pairs such as
// "2 hours" or "7 days". Zero disables caching.
func ParseRetention(value string) (time.Duration, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, fmt.Errorf("retention window is empty")
	}
	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("retention window %q is negative", value)
		}
		return d, nil
	}

	fields := strings.Fields(value)
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid retention window %q", value)
	}
	amount, err := strconv.Atoi(fields[0])
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("invalid retention amount %q", fields[0])
	}
	unit, ok := retentionUnits[strings.TrimSuffix(fields[1], "s")]
	if !ok {
		return 0, fmt.Errorf("unknown retention unit %q", fields[1])
	}
	return time.Duration(amount) * unit, nil
}
