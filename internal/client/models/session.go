package models

import "strings"

// Session is the authenticated credential pair. It is immutable once created:
// replaced wholesale on login/verify and cleared wholesale on logout.
type Session struct {
	Token    string
	Username string
}

// Valid reports whether both halves of the pair are present.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != "" && strings.TrimSpace(s.Username) != ""
}

// PendingIdentity links a user who has passed the password step to the 2FA
// challenge in progress. It lives in memory only.
type PendingIdentity struct {
	Username  string
	NextRoute string
}
