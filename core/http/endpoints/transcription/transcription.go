package transcription

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/core/services"
)

// TranscribeEndpoint handles POST /v1/audio/transcriptions.
//
// @Summary Transcribe speech from an uploaded audio file.
// @Accept multipart/form-data
// @Param file formData file true "Audio file (.mp3, .wav, .ts, .mp4)"
// @Param model formData string false "ASR model to use"
// @Param language formData string false "Optional language hint"
// @Param result_format formData string false "Desired result format"
// @Param align_mode formData bool false "Enable word-level timestamp alignment"
// @Param audio_preprocessing formData bool false "Enable vocal separation preprocessing"
// @Success 200 {object} schema.TranscriptionFullResult
// @Router /v1/audio/transcriptions [post]
func TranscribeEndpoint(service *services.TranscriptionService) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing audio file")
		}

		opts, err := parseOptions(c)
		if err != nil {
			return err
		}

		log.Debug().
			Str("file", file.Filename).
			Str("model", opts.Model.String()).
			Str("format", opts.Format.String()).
			Bool("align", opts.AlignMode).
			Bool("preprocess", opts.Preprocess).
			Msg("Transcription request")

		result, err := service.Transcribe(c.Request().Context(), file, opts)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func parseOptions(c echo.Context) (services.TranscriptionOptions, error) {
	opts := services.TranscriptionOptions{
		Model:      schema.ModelSmall,
		Format:     schema.ResultFormatFull,
		AlignMode:  true,
		Preprocess: true,
	}

	if v := c.FormValue("model"); v != "" {
		m := schema.Model(v)
		if !m.Valid() {
			return opts, fmt.Errorf("%w: unknown model %q", schema.ErrInvalidArgument, v)
		}
		opts.Model = m
	}
	if v := c.FormValue("language"); v != "" {
		lang := schema.Language(v)
		if !lang.Valid() {
			return opts, fmt.Errorf("%w: unsupported language %q", schema.ErrInvalidArgument, v)
		}
		opts.Language = lang
	}
	if v := c.FormValue("result_format"); v != "" {
		f := schema.ResultFormat(v)
		if !f.Valid() {
			return opts, fmt.Errorf("%w: %q", schema.ErrUnsupportedFormat, v)
		}
		opts.Format = f
	}

	var err error
	if opts.AlignMode, err = parseBool(c, "align_mode", opts.AlignMode); err != nil {
		return opts, err
	}
	if opts.Preprocess, err = parseBool(c, "audio_preprocessing", opts.Preprocess); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseBool(c echo.Context, field string, fallback bool) (bool, error) {
	v := c.FormValue(field)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: invalid boolean for %s: %q", schema.ErrInvalidArgument, field, v)
	}
	return b, nil
}
