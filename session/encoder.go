package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/goBoard/permission"
)

const (
	recordVersionCurrent = 1
	recordVersionLegacy  = 0
)

var (
	// ErrMalformedRecord is returned by Decode for bytes that are not a session record.
	ErrMalformedRecord = errors.New("malformed session record")
	// ErrUnsupportedVersion is returned by Decode for records written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported session record version")
	// ErrInconsistentRecord is returned by Decode when role and token disagree.
	ErrInconsistentRecord = errors.New("inconsistent session record")
)

type record struct {
	V           int    `json:"v"`
	Token       string `json:"token"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Encode serializes s as the current record version.
func Encode(s Session) ([]byte, error) {
	if !s.Consistent() {
		return nil, ErrInconsistentRecord
	}
	return json.Marshal(record{
		V:           recordVersionCurrent,
		Token:       s.Token,
		Role:        s.Role.String(),
		DisplayName: s.DisplayName,
		AvatarURL:   s.AvatarURL,
	})
}

// Decode parses a persisted record. Records without a version field are read as the
// legacy layout, which has the same fields.
func Decode(data []byte) (Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.V != recordVersionCurrent && rec.V != recordVersionLegacy {
		return Session{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.V)
	}

	role, err := permission.ParseRole(rec.Role)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInconsistentRecord, err)
	}
	s := Session{
		Token:       rec.Token,
		Role:        role,
		DisplayName: rec.DisplayName,
		AvatarURL:   rec.AvatarURL,
	}
	if !s.Consistent() {
		return Session{}, ErrInconsistentRecord
	}
	return s, nil
}
