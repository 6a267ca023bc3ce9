package portfoliogate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/portfoliogate/store"
	"github.com/eringen/portfoliogate/views"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized means the request lacks the required session fact.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited means the client exceeded a per-IP attempt budget.
	ErrRateLimited = errors.New("too many attempts")
	// ErrCSRF means a state-changing request lacked a matching CSRF token.
	ErrCSRF = errors.New("csrf token mismatch")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// writeError maps err to a status code and JSON body.
func writeError(c echo.Context, err error) error {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorBody{"validation_error", ve.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody{"invalid_credentials", "Invalid credentials"})
	case errors.Is(err, ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorBody{"unauthorized", "Unauthorized"})
	case errors.Is(err, ErrCSRF):
		return c.JSON(http.StatusForbidden, errorBody{"csrf_invalid", "Forbidden"})
	case errors.Is(err, ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, errorBody{"rate_limited", "Too many attempts. Try again later."})
	case errors.Is(err, store.ErrUnavailable):
		c.Logger().Errorf("store unavailable: op=%s", store.FailedOp(err))
		return c.JSON(http.StatusInternalServerError, errorBody{"unavailable", "Service unavailable"})
	case errors.As(err, &he):
		if he.Code >= http.StatusInternalServerError {
			c.Logger().Errorf("server error: %v", err)
			return c.JSON(he.Code, errorBody{"internal", http.StatusText(he.Code)})
		}
		return c.JSON(he.Code, errorBody{httpCode(he.Code), fmt.Sprint(he.Message)})
	}
	c.Logger().Errorf("server error: %v", err)
	return c.JSON(http.StatusInternalServerError, errorBody{"internal", "Internal server error"})
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// httpErrorHandler renders JSON for /api paths and HTML pages elsewhere.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if isAPIPath(c.Request().URL.Path) {
		_ = writeError(c, err)
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	switch {
	case code == http.StatusNotFound:
		_ = renderStatus(c, code, views.NotFound())
	case code >= http.StatusInternalServerError:
		if errors.Is(err, store.ErrUnavailable) {
			c.Logger().Errorf("store unavailable: op=%s", store.FailedOp(err))
		} else {
			c.Logger().Errorf("server error: %v", err)
		}
		_ = renderStatus(c, code, views.ServerError())
	default:
		_ = renderStatus(c, code, views.ErrorPage(code, http.StatusText(code)))
	}
}

// renderStatus writes an HTML page. HEAD requests get headers only.
func renderStatus(c echo.Context, code int, page templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if c.Request().Method == http.MethodHead {
		return nil
	}
	return page.Render(c.Request().Context(), c.Response().Writer)
}
