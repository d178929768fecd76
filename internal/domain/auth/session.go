package auth

import "time"

// Persistent store keys owned by the authentication service. The content
// manager writes a disjoint key set, so no cross-service coordination is
// needed.
const (
	sessionKey  = "portfolio_auth_session"
	attemptsKey = "portfolio_auth_attempts"
	lockoutKey  = "portfolio_auth_lockout"
)

// sessionRecord is the stored shape of an authenticated period. Timestamps
// are epoch milliseconds to keep the stored document portable.
type sessionRecord struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	LoginTime       int64 `json:"loginTime"`
	ExpiresAt       int64 `json:"expiresAt"`
}

func (r sessionRecord) expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// Result is the outcome of an authentication attempt. Error carries a
// human-readable message intended for direct display.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LockoutInfo describes the current lockout state for display purposes.
type LockoutInfo struct {
	IsLockedOut      bool `json:"isLockedOut"`
	RemainingMinutes int  `json:"remainingMinutes,omitempty"`
}

// ceilMinutes rounds a remaining duration up to whole minutes, matching the
// wording "try again in N minutes" shown to the user.
func ceilMinutes(d time.Duration) int {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + 59_999) / 60_000)
}
