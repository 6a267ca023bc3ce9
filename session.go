package portfoliogate

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "pg_session"

// Session value keys. A session may hold the visitor fact, the admin fact,
// or both.
const (
	keyVisitorName   = "visitor_name"
	keyVisitorEmail  = "visitor_email"
	keyAdminID       = "admin_id"
	keyAdminUsername = "admin_username"
)

// SessionKind selects which facts EndSession removes.
type SessionKind int

const (
	SessionVisitor SessionKind = iota
	SessionAdmin
	SessionAll
)

// VisitorIdentity is the visitor fact of a session.
type VisitorIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdminIdentity is the admin fact of a session.
type AdminIdentity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// tokenReissuer is implemented by session stores that can move a session to
// a fresh token.
type tokenReissuer interface {
	Reissue(r *http.Request, w http.ResponseWriter, s *sessions.Session) error
}

// StartVisitorSession records the visitor fact and returns the session token.
func StartVisitorSession(c echo.Context, v VisitorIdentity) (string, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", err
	}
	sess.Values[keyVisitorName] = v.Name
	sess.Values[keyVisitorEmail] = v.Email
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// StartAdminSession records the admin fact under a freshly issued token. The
// record behind the previous token is deleted once the new one is saved; a
// visitor fact carries over. On failure the previous session stays as it was.
func StartAdminSession(c echo.Context, a AdminIdentity) (string, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", err
	}
	sess.Values[keyAdminID] = a.ID
	sess.Values[keyAdminUsername] = a.Username

	if re, ok := sess.Store().(tokenReissuer); ok {
		err = re.Reissue(c.Request(), c.Response(), sess)
	} else {
		err = sess.Save(c.Request(), c.Response())
	}
	if err != nil {
		delete(sess.Values, keyAdminID)
		delete(sess.Values, keyAdminUsername)
		return "", err
	}
	return sess.ID, nil
}

// EndSession removes the selected facts. The session record is deleted and
// the cookie expired once no fact remains.
func EndSession(c echo.Context, kind SessionKind) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	if kind == SessionVisitor || kind == SessionAll {
		delete(sess.Values, keyVisitorName)
		delete(sess.Values, keyVisitorEmail)
	}
	if kind == SessionAdmin || kind == SessionAll {
		delete(sess.Values, keyAdminID)
		delete(sess.Values, keyAdminUsername)
	}
	if !hasVisitor(sess) && !hasAdmin(sess) {
		sess.Options.MaxAge = -1
	}
	return sess.Save(c.Request(), c.Response())
}

// IsVisitor reports whether the request carries a registered visitor session.
func IsVisitor(c echo.Context) bool {
	_, ok := CurrentVisitor(c)
	return ok
}

// IsAdmin reports whether the request carries an admin session.
func IsAdmin(c echo.Context) bool {
	_, ok := CurrentAdmin(c)
	return ok
}

// CurrentVisitor returns the visitor fact of the request's session.
func CurrentVisitor(c echo.Context) (VisitorIdentity, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil || !hasVisitor(sess) {
		return VisitorIdentity{}, false
	}
	email, _ := sess.Values[keyVisitorEmail].(string)
	return VisitorIdentity{Name: sess.Values[keyVisitorName].(string), Email: email}, true
}

// CurrentAdmin returns the admin fact of the request's session.
func CurrentAdmin(c echo.Context) (AdminIdentity, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil || !hasAdmin(sess) {
		return AdminIdentity{}, false
	}
	username, _ := sess.Values[keyAdminUsername].(string)
	return AdminIdentity{ID: sess.Values[keyAdminID].(int64), Username: username}, true
}

func hasVisitor(sess *sessions.Session) bool {
	name, ok := sess.Values[keyVisitorName].(string)
	return ok && name != ""
}

func hasAdmin(sess *sessions.Session) bool {
	id, ok := sess.Values[keyAdminID].(int64)
	return ok && id > 0
}

// renewSession saves an established session again so its expiry restarts.
func renewSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	if sess.IsNew {
		return nil
	}
	return sess.Save(c.Request(), c.Response())
}
