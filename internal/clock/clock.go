package clock

import "time"

// Clock abstracts wall time so expiry logic can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the real UTC clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
