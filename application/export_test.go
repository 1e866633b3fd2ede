package application

import "time"

// SetClock overrides the service clock for testing.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
