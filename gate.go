package portfoliogate

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// loginPage is where visitors without a session are sent.
const loginPage = "/login.html"

// Gate guards routes by session fact.
type Gate struct {
	// Sliding restarts the session lifetime on every request that passes.
	Sliding bool
}

// RequireVisitor redirects requests without a visitor fact to the login page.
func (g Gate) RequireVisitor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsVisitor(c) {
			return c.Redirect(http.StatusSeeOther, loginPage)
		}
		if err := g.renew(c); err != nil {
			return err
		}
		return next(c)
	}
}

// RequireAdmin rejects requests without an admin fact with ErrUnauthorized.
func (g Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return ErrUnauthorized
		}
		if err := g.renew(c); err != nil {
			return err
		}
		return next(c)
	}
}

func (g Gate) renew(c echo.Context) error {
	if !g.Sliding {
		return nil
	}
	return renewSession(c)
}
