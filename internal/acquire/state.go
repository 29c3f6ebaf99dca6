package acquire

// State is the position of one acquisition attempt.
type State int

const (
	StateNotAttempted State = iota
	StatePrimaryInFlight
	StatePrimarySucceeded
	StatePrimaryAuthFailed
	StatePrimaryOtherFailed
	StateFallbackInFlight
	StateFallbackSucceeded
	StateFallbackFailed
)

var stateNames = [...]string{
	StateNotAttempted:       "not_attempted",
	StatePrimaryInFlight:    "primary_in_flight",
	StatePrimarySucceeded:   "primary_succeeded",
	StatePrimaryAuthFailed:  "primary_auth_failed",
	StatePrimaryOtherFailed: "primary_other_failed",
	StateFallbackInFlight:   "fallback_in_flight",
	StateFallbackSucceeded:  "fallback_succeeded",
	StateFallbackFailed:     "fallback_failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StatePrimarySucceeded, StatePrimaryOtherFailed, StateFallbackSucceeded, StateFallbackFailed:
		return true
	}
	return false
}
