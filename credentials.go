package portfoliogate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/portfoliogate/store"
)

// AdminStore is the persistence the credential verifier needs.
type AdminStore interface {
	InsertAdmin(ctx context.Context, username, passwordHash string) (bool, error)
	AdminByUsername(ctx context.Context, username string) (store.AdminCredential, error)
}

// Credentials hashes and verifies admin passwords.
type Credentials struct {
	admins    AdminStore
	cost      int
	dummyHash []byte
}

// NewCredentials returns a verifier that hashes at the given bcrypt cost.
func NewCredentials(admins AdminStore, cost int) (*Credentials, error) {
	// Compared against for unknown usernames so both failure paths cost one
	// bcrypt comparison at the same work factor.
	dummy, err := bcrypt.GenerateFromPassword([]byte("portfoliogate-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Credentials{admins: admins, cost: cost, dummyHash: dummy}, nil
}

// Bootstrap creates the admin account unless the username already exists.
// An existing account keeps its password.
func (cr *Credentials) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("bootstrap admin: username and password are required")
	}
	if _, err := cr.admins.AdminByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cr.cost)
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return cr.admins.InsertAdmin(ctx, username, string(hash))
}

// Verify checks a username and password. An unknown username and a wrong
// password both return ErrInvalidCredentials.
func (cr *Credentials) Verify(ctx context.Context, username, password string) (store.AdminCredential, error) {
	admin, err := cr.admins.AdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(cr.dummyHash, []byte(password))
		return store.AdminCredential{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.AdminCredential{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return store.AdminCredential{}, ErrInvalidCredentials
	}
	return admin, nil
}
