package date

import "time"

func NowTimeUTC() time.Time {
	return time.Now().UTC()
}

func UnixTimeUTC(u int64) time.Time {
	return time.Unix(u, 0).UTC()
}

// LoadLocation is time.LoadLocation which also takes "" for UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
