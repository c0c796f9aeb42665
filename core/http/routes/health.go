package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterHealthRoutes(e *echo.Echo) {
	ok := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	e.GET("/healthz", ok)
	e.GET("/readyz", ok)
}
