package adapter

import "time"

// Clock is the time source of the drivers and the ledger
//
//go:generate mockgen -source=clock.go -destination=../mocks/clock.go -package=mocks -mock_names=Clock=MockClock
type Clock interface {
	// Now returns the current time in UTC
	Now() time.Time
	Since(t time.Time) time.Duration
	// After is used for poll and reconnect waits so tests can release them
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

// NewClock returns the wall clock
func NewClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
