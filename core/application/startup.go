package application

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/config"
	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/internal"
	"github.com/voxscribe/voxscribe/pkg/model"
	"github.com/voxscribe/voxscribe/pkg/runtime"
)

// New constructs the application and performs the startup preload: the
// separation model, alignment models for every supported language and the
// configured subset of ASR models are all loaded eagerly. This is the single
// startup hook the host process calls.
func New(opts ...config.AppOption) (*Application, error) {
	options := config.NewApplicationConfig(opts...)
	return NewWithFactories(options, runtime.Factories(runtime.Config{
		Bin:          options.RunnerBin,
		Device:       options.Device,
		ComputeType:  options.ComputeType,
		DownloadRoot: options.DownloadRoot,
		StartTimeout: options.RunnerStartTimeout,
	}))
}

// NewWithFactories is New with injectable pipeline factories.
func NewWithFactories(options *config.ApplicationConfig, factories model.Factories) (*Application, error) {
	log.Info().
		Str("device", options.Device).
		Str("computeType", options.ComputeType).
		Str("downloadRoot", options.DownloadRoot).
		Msg("Starting voxscribe")
	log.Info().Msgf("voxscribe version: %s", internal.PrintableVersion())

	if options.DownloadRoot == "" {
		return nil, fmt.Errorf("download root cannot be empty")
	}
	if err := os.MkdirAll(options.DownloadRoot, 0o750); err != nil {
		return nil, fmt.Errorf("unable to create download root: %w", err)
	}

	application := newApplication(options, factories)

	if err := application.separator.Preload(); err != nil {
		return nil, err
	}
	if err := application.pipelineLoader.Preload(options.PreloadModels, schema.Languages()); err != nil {
		return nil, err
	}

	if options.DynamicConfigDir != "" {
		handler := newConfigFileHandler(options)
		application.configHandler = &handler
		if err := handler.Watch(); err != nil {
			log.Error().Err(err).Msg("Failed to start config watcher")
		}
	}

	log.Info().Msg("Startup preload complete")
	return application, nil
}

// Shutdown evicts every cached pipeline and stops the separator and the
// config watcher. This is the single shutdown hook the host process calls.
func (a *Application) Shutdown() error {
	log.Info().Msg("Shutting down")

	err := a.pipelineLoader.EvictAll()
	if closeErr := a.separator.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to stop separator")
	}
	if a.configHandler != nil {
		if watchErr := a.configHandler.Stop(); watchErr != nil {
			log.Error().Err(watchErr).Msg("Failed to stop config watcher")
		}
	}
	return err
}
