package models

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrEmptyName = errors.New("display name is required")

// Session carries the display name of whoever is making the request.
// There is no credential behind it; the token only lets a browser restore the name.
type Session struct {
	Name string `json:"name"`
}

func NewSession(name string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrEmptyName
	}
	return Session{Name: name}, nil
}

// Token encodes the session so it can travel in a URL.
func (s Session) Token() string {
	return base64.RawURLEncoding.EncodeToString([]byte(s.Name))
}

func SessionFromToken(token string) (Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Session{}, err
	}
	return NewSession(string(raw))
}
