package portfoliogate

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return ErrRateLimited
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return &ValidationError{Field: "credentials", Message: "username and password are required"}
	}

	admin, err := a.Credentials.Verify(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		c.Logger().Warnf("admin login failed from %s", ip)
		return err
	}
	if err != nil {
		return err
	}
	a.loginLimiter.Reset(ip)

	if _, err := StartAdminSession(c, AdminIdentity{ID: admin.ID, Username: admin.Username}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "username": admin.Username})
}

func handleAdminLogout(c echo.Context) error {
	if err := EndSession(c, SessionAdmin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func handleAdminMe(c echo.Context) error {
	admin, ok := CurrentAdmin(c)
	if !ok {
		return ErrUnauthorized
	}
	return c.JSON(http.StatusOK, admin)
}
