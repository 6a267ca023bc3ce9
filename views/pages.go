// Package views renders the few HTML pages the server produces itself. The
// portfolio and login pages are static files.
package views

import (
	"context"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// ErrorPage renders a minimal page for an HTTP error status.
func ErrorPage(code int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status := strconv.Itoa(code)
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`+status+` `+html.EscapeString(message)+`</title>
</head>
<body>
<main>
<h1>`+status+`</h1>
<p>`+html.EscapeString(message)+`</p>
<p><a href="/">Back to the portfolio</a></p>
</main>
</body>
</html>
`)
		return err
	})
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return ErrorPage(404, "Page not found")
}

// ServerError renders the generic 500 page. It never shows error details.
func ServerError() templ.Component {
	return ErrorPage(500, "Something went wrong. Please try again later.")
}
