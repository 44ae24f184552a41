package service

import "time"

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
