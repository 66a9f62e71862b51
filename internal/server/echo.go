package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// EchoHandler returns the same status surface as Handler, mounted in an echo
// instance, for embedders whose application server is echo-based.
func (r *Router) EchoHandler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	h := r.Handler()
	base := r.basePath
	if base == "" {
		e.Any("/*", echo.WrapHandler(h))
	} else {
		e.Any(base, echo.WrapHandler(h))
		e.Any(base+"/*", echo.WrapHandler(h))
	}
	return e
}
