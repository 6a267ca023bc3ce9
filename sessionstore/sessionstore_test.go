package sessionstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/portfoliogate/store"
)

const cookieName = "pg_session"

var hashKey = []byte("0123456789abcdef0123456789abcdef")

type memBackend struct {
	mu      sync.Mutex
	data    map[string]string
	loadErr error
	saveErr error
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string]string{}}
}

func (m *memBackend) LoadSession(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return "", m.loadErr
	}
	d, ok := m.data[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return d, nil
}

func (m *memBackend) SaveSession(_ context.Context, id, data string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[id] = data
	return nil
}

func (m *memBackend) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memBackend) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// saveNew creates a session holding values and returns its cookie.
func saveNew(t *testing.T, s *Store, values map[any]any) (*http.Cookie, *sessions.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, cookieName)
	require.NoError(t, err)
	require.True(t, sess.IsNew)
	for k, v := range values {
		sess.Values[k] = v
	}
	require.NoError(t, sess.Save(req, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], sess
}

func load(t *testing.T, s *Store, c *http.Cookie) *sessions.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	sess, err := s.Get(req, cookieName)
	require.NoError(t, err)
	return sess
}

func TestSaveKeepsValuesServerSide(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)

	cookie, sess := saveNew(t, s, map[any]any{"visitor_email": "ada@example.com"})

	assert.Len(t, sess.ID, 52, "256-bit token, base32")
	assert.NotContains(t, cookie.Value, "ada@example.com")
	assert.NotContains(t, cookie.Value, sess.ID, "token is signed, not sent raw")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, backend.len())

	loaded := load(t, s, cookie)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "ada@example.com", loaded.Values["visitor_email"])
}

func TestTokensAreUnique(t *testing.T) {
	s := New(newMemBackend(), hashKey)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		_, sess := saveNew(t, s, map[any]any{"n": i})
		require.False(t, seen[sess.ID])
		seen[sess.ID] = true
	}
}

func TestForgedCookieStartsFreshSession(t *testing.T) {
	s := New(newMemBackend(), hashKey)
	other := New(newMemBackend(), []byte("ffffffffffffffffffffffffffffffff"))

	cookie, _ := saveNew(t, other, map[any]any{"admin_id": int64(1)})

	loaded := load(t, s, cookie)
	assert.True(t, loaded.IsNew)
	assert.Empty(t, loaded.ID)
	assert.Nil(t, loaded.Values["admin_id"])
}

func TestDeletedRecordStartsFreshSession(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)
	cookie, sess := saveNew(t, s, map[any]any{"admin_id": int64(7)})

	require.NoError(t, backend.DeleteSession(context.Background(), sess.ID))

	loaded := load(t, s, cookie)
	assert.True(t, loaded.IsNew)
	assert.Empty(t, loaded.Values)
}

func TestNegativeMaxAgeDeletesSession(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)
	cookie, _ := saveNew(t, s, map[any]any{"visitor_name": "Ada"})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, cookieName)
	require.NoError(t, err)
	sess.Options.MaxAge = -1
	require.NoError(t, sess.Save(req, rec))

	assert.Equal(t, 0, backend.len())
	expired := rec.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Negative(t, expired[0].MaxAge)

	loaded := load(t, s, cookie)
	assert.True(t, loaded.IsNew, "old cookie no longer maps to a session")
}

func TestReissueIssuesNewToken(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)
	cookie, first := saveNew(t, s, map[any]any{"visitor_name": "Ada"})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, cookieName)
	require.NoError(t, err)

	sess.Values["admin_id"] = int64(1)
	require.NoError(t, s.Reissue(req, rec, sess))

	assert.NotEqual(t, first.ID, sess.ID)
	assert.Equal(t, 1, backend.len())

	assert.True(t, load(t, s, cookie).IsNew, "previous cookie is dead")
	reissued := load(t, s, rec.Result().Cookies()[0])
	assert.Equal(t, "Ada", reissued.Values["visitor_name"])
	assert.Equal(t, int64(1), reissued.Values["admin_id"])
}

func TestReissueFailureKeepsPreviousSession(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)
	cookie, first := saveNew(t, s, map[any]any{"visitor_name": "Ada"})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, cookieName)
	require.NoError(t, err)

	backend.saveErr = errors.New("disk full")
	sess.Values["admin_id"] = int64(1)
	require.Error(t, s.Reissue(req, rec, sess))
	assert.Equal(t, first.ID, sess.ID)
	assert.Empty(t, rec.Result().Cookies())

	backend.saveErr = nil
	kept := load(t, s, cookie)
	assert.False(t, kept.IsNew)
	assert.Equal(t, "Ada", kept.Values["visitor_name"])
	assert.Nil(t, kept.Values["admin_id"])
}

func TestBackendFailureIsReported(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, hashKey)
	cookie, _ := saveNew(t, s, map[any]any{"admin_id": int64(1)})

	backend.loadErr = errors.New("boom")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := s.New(req, cookieName)
	assert.Error(t, err)
	assert.True(t, sess.IsNew)
	assert.Nil(t, sess.Values["admin_id"])
}

func TestSQLBackend(t *testing.T) {
	db, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	defer db.Close()

	s := New(db, hashKey)
	cookie, _ := saveNew(t, s, map[any]any{"admin_id": int64(3), "admin_username": "root"})

	loaded := load(t, s, cookie)
	assert.Equal(t, int64(3), loaded.Values["admin_id"])
	assert.Equal(t, "root", loaded.Values["admin_username"])
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	backend := NewRedisBackend(client, "test:session:")
	ctx := context.Background()

	require.NoError(t, backend.SaveSession(ctx, "abc", "payload", time.Now().Add(time.Minute)))
	data, err := backend.LoadSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", data)

	require.NoError(t, backend.DeleteSession(ctx, "abc"))
	_, err = backend.LoadSession(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisOutageIsUnavailable(t *testing.T) {
	// Nothing listens on port 1.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	backend := NewRedisBackend(client, "test:session:")
	ctx := context.Background()

	_, err := backend.LoadSession(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "redis load session", store.FailedOp(err))

	err = backend.SaveSession(ctx, "abc", "payload", time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = backend.DeleteSession(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = NewRedisClient(ctx, "redis://127.0.0.1:1/0?dial_timeout=200ms&max_retries=-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
