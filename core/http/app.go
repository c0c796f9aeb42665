package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/voxscribe/voxscribe/core/application"
	httpMiddleware "github.com/voxscribe/voxscribe/core/http/middleware"
	"github.com/voxscribe/voxscribe/core/http/routes"
	"github.com/voxscribe/voxscribe/core/schema"
)

// App builds the HTTP API server around the application.
func App(application *application.Application) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	appConfig := application.ApplicationConfig()

	if appConfig.UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", appConfig.UploadLimitMB)))
	}
	e.Use(middleware.Recover())

	if appConfig.CORS {
		opts := middleware.DefaultCORSConfig
		if appConfig.CORSAllowOrigins != "" {
			opts.AllowOrigins = []string{appConfig.CORSAllowOrigins}
		}
		e.Use(middleware.CORSWithConfig(opts))
	}

	e.Use(httpMiddleware.APIKey(appConfig))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := statusFor(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		_ = c.JSON(code, schema.ErrorResponse{
			Error: &schema.APIError{
				Code:    code,
				Kind:    schema.ErrorKind(err),
				Message: err.Error(),
			},
		})
	}

	routes.RegisterHealthRoutes(e)
	routes.RegisterTranscriptionRoutes(e, application)

	return e, nil
}

// statusFor maps core error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrUnsupportedFormat), errors.Is(err, schema.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrAudioDecode):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrModelLoad):
		return http.StatusServiceUnavailable
	case errors.Is(err, schema.ErrResourceExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
