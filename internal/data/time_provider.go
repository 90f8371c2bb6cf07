package data

import "time"

// TimeProvider provides time-related functionality that can be mocked for
// testing. The scheduling engine does all date arithmetic in the club's
// configured timezone, so providers carry a location.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time
	// Today returns midnight of the current calendar date in the club timezone.
	Today() time.Time
	// Location returns the club timezone.
	Location() *time.Location
}

// RealTimeProvider implements TimeProvider using real system time.
type RealTimeProvider struct {
	Loc *time.Location
}

// NewRealTimeProvider creates a RealTimeProvider in the given location.
func NewRealTimeProvider(loc *time.Location) *RealTimeProvider {
	if loc == nil {
		loc = time.UTC
	}
	return &RealTimeProvider{Loc: loc}
}

// Now returns the current time in the configured location.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now().In(r.Location())
}

// Today returns midnight of today in the configured location.
func (r *RealTimeProvider) Today() time.Time {
	now := r.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.Location())
}

// Location returns the configured location, defaulting to UTC.
func (r *RealTimeProvider) Location() *time.Location {
	if r.Loc == nil {
		return time.UTC
	}
	return r.Loc
}

// FixedTimeProvider implements TimeProvider with a fixed time for testing.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a new FixedTimeProvider with the given time.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// Today returns midnight of the fixed time's calendar date.
func (f *FixedTimeProvider) Today() time.Time {
	y, m, d := f.fixedTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, f.fixedTime.Location())
}

// Location returns the fixed time's location.
func (f *FixedTimeProvider) Location() *time.Location {
	return f.fixedTime.Location()
}

// SetTime updates the fixed time (useful for testing time progression).
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.fixedTime = t
}

// AddTime adds a duration to the current fixed time.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.fixedTime = f.fixedTime.Add(d)
}
