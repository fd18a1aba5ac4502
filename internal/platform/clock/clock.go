package clock

import "time"

// Clock supplies the server-side "now". Bid timestamps are never taken from
// clients; injecting the clock lets tests pin window boundaries exactly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func System() Clock {
	return systemClock{}
}
