package portfoliogate

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleRegister(c echo.Context) error {
	if !a.registerLimiter.Allow(c.RealIP()) {
		return ErrRateLimited
	}
	var in RegistrationInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.UserAgent = c.Request().UserAgent()
	in.IP = c.RealIP()

	id, err := a.Registrar.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	visitor := VisitorIdentity{Name: strings.TrimSpace(in.Name), Email: strings.TrimSpace(in.Email)}
	if _, err := StartVisitorSession(c, visitor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "id": id})
}

func handleLogout(c echo.Context) error {
	if err := EndSession(c, SessionVisitor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleIndex(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "index.html"))
}

func (a *App) handleLoginPage(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "login.html"))
}

// handleCSRFToken hands the token to scripts that cannot read the cookie,
// including pages served from an allowed cross-site origin.
func handleCSRFToken(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"token": CsrfToken(c)})
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
