package http

import "github.com/labstack/echo/v4"

// Handler is implemented by each API surface (quotes, analysis) to
// register its routes on the shared Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
