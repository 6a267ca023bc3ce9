package portfoliogate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/portfoliogate/store"
)

func setupCredentials(t *testing.T) (*Credentials, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "creds.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cr, err := NewCredentials(st, bcrypt.MinCost)
	require.NoError(t, err)
	return cr, st
}

func TestBootstrapIsIdempotent(t *testing.T) {
	cr, st := setupCredentials(t)
	ctx := context.Background()

	created, err := cr.Bootstrap(ctx, "admin", "first")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = cr.Bootstrap(ctx, "admin", "second")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := st.AdminByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(admin.PasswordHash, "$2"), "stored value is a bcrypt hash")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("first")))
}

func TestBootstrapRequiresPassword(t *testing.T) {
	cr, _ := setupCredentials(t)
	_, err := cr.Bootstrap(context.Background(), "admin", "")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	cr, _ := setupCredentials(t)
	ctx := context.Background()
	_, err := cr.Bootstrap(ctx, "admin", "s3cret")
	require.NoError(t, err)

	admin, err := cr.Verify(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.Positive(t, admin.ID)

	_, err = cr.Verify(ctx, "admin", "S3CRET")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = cr.Verify(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type failingAdmins struct{}

func (failingAdmins) InsertAdmin(context.Context, string, string) (bool, error) {
	return false, store.ErrUnavailable
}

func (failingAdmins) AdminByUsername(context.Context, string) (store.AdminCredential, error) {
	return store.AdminCredential{}, store.ErrUnavailable
}

func TestVerifyPropagatesStoreFailure(t *testing.T) {
	cr, err := NewCredentials(failingAdmins{}, bcrypt.MinCost)
	require.NoError(t, err)

	_, err = cr.Verify(context.Background(), "admin", "pw")
	assert.True(t, errors.Is(err, store.ErrUnavailable))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))

	_, err = cr.Bootstrap(context.Background(), "admin", "pw")
	assert.True(t, errors.Is(err, store.ErrUnavailable))
}
