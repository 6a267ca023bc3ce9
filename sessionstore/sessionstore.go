// Package sessionstore implements a gorilla/sessions store that keeps
// session values on the server. The cookie carries only a signed, random
// session token.
package sessionstore

import (
	"context"
	"encoding/base32"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/eringen/portfoliogate/store"
)

// Backend persists encoded session values by token. LoadSession must return
// store.ErrNotFound for missing or expired sessions.
type Backend interface {
	LoadSession(ctx context.Context, id string) (string, error)
	SaveSession(ctx context.Context, id, data string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

// tokenBytes is the entropy of a session token.
const tokenBytes = 32

// defaultLifetime applies server-side when the cookie is a browser-session
// cookie (MaxAge 0).
const defaultLifetime = 24 * time.Hour

// Store is a sessions.Store backed by a Backend.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
}

// New returns a Store. keyPairs follow securecookie.CodecsFromPairs: a hash
// key, optionally followed by a block key for encryption.
func New(backend Backend, keyPairs ...[]byte) *Store {
	s := &Store{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(defaultLifetime / time.Second),
			HttpOnly: true,
		},
		backend: backend,
	}
	s.MaxAge(s.Options.MaxAge)
	return s
}

// MaxAge sets the lifetime of new sessions and of the signed token.
func (s *Store) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session cached in the request registry, loading it on the
// first call.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. An absent, forged or
// expired token yields a fresh session without error; a backend failure is
// returned alongside a fresh session.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, nil
	}
	data, err := s.backend.LoadSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return session, nil
	}
	if err != nil {
		return session, err
	}
	if err := securecookie.DecodeMulti(name, data, &session.Values, s.Codecs...); err != nil {
		return session, nil
	}
	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes its cookie. A negative MaxAge deletes
// the server-side record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.DeleteSession(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newToken()
		if err != nil {
			return err
		}
		session.ID = id
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	lifetime := time.Duration(session.Options.MaxAge) * time.Second
	if lifetime == 0 {
		lifetime = defaultLifetime
	}
	if err := s.backend.SaveSession(ctx, session.ID, data, time.Now().Add(lifetime)); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Reissue saves the session under a fresh token, then deletes the record of
// the previous token. If the save fails the previous record is untouched.
func (s *Store) Reissue(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	prev := session.ID
	session.ID = ""
	if err := s.Save(r, w, session); err != nil {
		session.ID = prev
		return err
	}
	if prev == "" {
		return nil
	}
	if err := s.backend.DeleteSession(r.Context(), prev); err != nil {
		// Both tokens must not stay valid; drop the new one instead.
		_ = s.backend.DeleteSession(r.Context(), session.ID)
		return err
	}
	return nil
}

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func newToken() (string, error) {
	b := securecookie.GenerateRandomKey(tokenBytes)
	if b == nil {
		return "", errors.New("sessionstore: generate token")
	}
	return strings.ToLower(tokenEncoding.EncodeToString(b)), nil
}
