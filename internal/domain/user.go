package domain

import (
	"net/mail"
	"strings"
)

// User is a player that can be assigned to trivias.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser validates and builds a user. Emails are stored lower-cased.
func NewUser(id, name, email string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return User{}, Errorf(KindInvalidUser, "user name cannot be empty")
	}
	if email == "" {
		return User{}, Errorf(KindInvalidUser, "email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return User{}, Errorf(KindInvalidUser, "invalid email %q", email)
	}
	return User{ID: id, Name: name, Email: email}, nil
}
