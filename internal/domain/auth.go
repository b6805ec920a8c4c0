package domain

import "time"

type ID struct {
	ID uint64
}

type Auth struct {
	ID       ID
	UserID   ID
	Email    string
	Password string
}

// Session is a time-bounded authorization grant tying an opaque token to a
// user. Its lifetime is owned by the session store: created on start,
// extended on hold, removed on expiry or verification of a stale record.
type Session struct {
	Token     string
	UserID    ID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type SessionToken struct {
	Token string
}
