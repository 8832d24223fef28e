package services

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Clock interface {
	Now() time.Time
	// TimeZoneID is an IANA zone name such as "Europe/Paris".
	TimeZoneID() string
}

// SystemClock reports UTC time and the host time zone. Zone overrides the
// detected zone when set.
type SystemClock struct {
	Zone string
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c SystemClock) TimeZoneID() string {
	if c.Zone != "" {
		return c.Zone
	}
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if name := time.Local.String(); name != "Local" {
		return name
	}
	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if _, zone, ok := strings.Cut(target, "zoneinfo/"); ok {
			return zone
		}
	}
	return "UTC"
}
