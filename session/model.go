package session

import "github.com/MrEthical07/goBoard/permission"

// Session is a snapshot of the authentication state. Treat it as a value; the Store
// never hands out pointers to its live copy.
type Session struct {
	Token       string
	Role        permission.Role
	DisplayName string
	AvatarURL   string
}

// Anonymous returns the signed-out session.
func Anonymous() Session {
	return Session{Role: permission.Anonymous}
}

// IsAnonymous reports whether no identity is attached.
func (s Session) IsAnonymous() bool {
	return s.Token == ""
}

// Consistent reports whether the role/token pairing holds: anonymous iff no token.
func (s Session) Consistent() bool {
	if !s.Role.Valid() {
		return false
	}
	return (s.Role == permission.Anonymous) == (s.Token == "")
}
