package domain

import "time"

// Session is the decoded claim set of a validated session token.
type Session struct {
	UserID    string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
