package transcription

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voxscribe/voxscribe/core/schema"
)

// ModelsEndpoint handles GET /v1/audio/models.
func ModelsEndpoint() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, schema.ModelList{Models: schema.Models()})
	}
}

// LanguagesEndpoint handles GET /v1/audio/languages.
func LanguagesEndpoint() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, schema.LanguageList{Languages: schema.Languages()})
	}
}
