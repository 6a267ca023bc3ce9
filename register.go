package portfoliogate

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/eringen/portfoliogate/store"
)

// Field limits, in characters.
const (
	maxNameLen      = 120
	maxEmailLen     = 160
	maxPhoneLen     = 40
	maxUserAgentLen = 512 // bytes; longer values are truncated, not rejected
)

// RegistrationInput is a submitted visitor form plus request metadata.
type RegistrationInput struct {
	Name      string `json:"name" form:"name"`
	Email     string `json:"email" form:"email"`
	Phone     string `json:"phone" form:"phone"`
	UserAgent string `json:"-"`
	IP        string `json:"-"`
}

// VisitorStore is the persistence the registrar needs.
type VisitorStore interface {
	InsertVisitor(ctx context.Context, v store.Visitor) (int64, error)
}

// Registrar validates and records visitor registrations.
type Registrar struct {
	visitors VisitorStore
}

// NewRegistrar returns a Registrar writing to visitors.
func NewRegistrar(visitors VisitorStore) *Registrar {
	return &Registrar{visitors: visitors}
}

// Register validates in and stores one visitor row. Invalid input returns a
// *ValidationError and writes nothing.
func (r *Registrar) Register(ctx context.Context, in RegistrationInput) (int64, error) {
	v, err := in.normalize()
	if err != nil {
		return 0, err
	}
	return r.visitors.InsertVisitor(ctx, v)
}

func (in RegistrationInput) normalize() (store.Visitor, error) {
	v := store.Visitor{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		UserAgent: truncate(strings.TrimSpace(in.UserAgent), maxUserAgentLen),
		IP:        strings.TrimSpace(in.IP),
	}
	switch {
	case v.Name == "":
		return v, &ValidationError{Field: "name", Message: "is required"}
	case v.Email == "":
		return v, &ValidationError{Field: "email", Message: "is required"}
	case utf8.RuneCountInString(v.Name) > maxNameLen:
		return v, &ValidationError{Field: "name", Message: "is too long"}
	case utf8.RuneCountInString(v.Email) > maxEmailLen:
		return v, &ValidationError{Field: "email", Message: "is too long"}
	case utf8.RuneCountInString(v.Phone) > maxPhoneLen:
		return v, &ValidationError{Field: "phone", Message: "is too long"}
	}
	return v, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
