// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxLoginLen = 36

var (
	ErrLoginTooLong = errors.New("login too long")
	ErrLoginEmpty   = errors.New("login empty")
)

// PlayerID is the identity the auth collaborator hands out.
// Stable across reconnects, globally unique.
type PlayerID string

// User is a stored credential record; Password never leaves the auth layer.
type User struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// NewPlayerID validates a login before it becomes an identity.
func NewPlayerID(login string) (PlayerID, error) {
	if len(login) == 0 {
		return "", ErrLoginEmpty
	}
	if len(login) > MaxLoginLen {
		return "", ErrLoginTooLong
	}
	return PlayerID(login), nil
}
