package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/voxscribe/voxscribe/core/application"
	"github.com/voxscribe/voxscribe/core/http/endpoints/transcription"
)

func RegisterTranscriptionRoutes(e *echo.Echo, application *application.Application) {
	service := application.TranscriptionService()

	e.POST("/v1/audio/transcriptions", transcription.TranscribeEndpoint(service))
	e.GET("/v1/audio/models", transcription.ModelsEndpoint())
	e.GET("/v1/audio/languages", transcription.LanguagesEndpoint())
}
