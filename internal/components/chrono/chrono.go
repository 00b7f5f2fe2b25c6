package chrono

import "time"

// ProviderZone is the zone the data providers publish their dates and times in.
const ProviderZone = "EST"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// ProviderLocation returns the provider zone, falling back to a fixed UTC-5 offset
// when the system has no tz database.
func ProviderLocation() *time.Location {
	location, err := time.LoadLocation(ProviderZone)
	if err != nil {
		return time.FixedZone(ProviderZone, -5*60*60)
	}
	return location
}

// Provider returns a clock in the provider zone.
func Provider() StandardImpl {
	return StandardImpl{location: ProviderLocation()}
}

// FixedImpl always returns the same instant, used in tests.
type FixedImpl struct {
	Instant time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Instant
}

func (f FixedImpl) Location() *time.Location {
	return f.Instant.Location()
}
