package main

import (
	"fmt"
	"time"
)

// parseTimeout accepts a Go duration or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("timeout must be positive: %s", s)
		}
		return d, nil
	}
	var secs int
	if _, err := fmt.Sscanf(s, "%d", &secs); err != nil || secs <= 0 || fmt.Sprint(secs) != s {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs) * time.Second, nil
}
