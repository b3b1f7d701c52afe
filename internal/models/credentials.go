package models

import "time"

// Credentials is a signed-in session as persisted between runs.
type Credentials struct {
	Username     string
	IDToken      string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the id token is past its expiry, allowing for skew.
// A zero expiry never expires.
func (c *Credentials) Expired(now time.Time, skew time.Duration) bool {
	if c == nil || c.IDToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(skew).Before(c.Expiry)
}
