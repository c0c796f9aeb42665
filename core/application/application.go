package application

import (
	"github.com/voxscribe/voxscribe/core/backend"
	"github.com/voxscribe/voxscribe/core/config"
	"github.com/voxscribe/voxscribe/core/services"
	"github.com/voxscribe/voxscribe/pkg/model"
	"github.com/voxscribe/voxscribe/pkg/separator"
)

type Application struct {
	applicationConfig    *config.ApplicationConfig
	pipelineLoader       *model.PipelineLoader
	separator            *separator.Separator
	transcriber          *backend.Transcriber
	transcriptionService *services.TranscriptionService
	configHandler        *configFileHandler
}

func newApplication(appConfig *config.ApplicationConfig, factories model.Factories) *Application {
	loader := model.NewPipelineLoader(factories)
	sep := separator.New(factories.Separator)
	transcriber := backend.NewTranscriber(loader, sep, appConfig.BatchSize, appConfig.ChunkSize)

	return &Application{
		applicationConfig:    appConfig,
		pipelineLoader:       loader,
		separator:            sep,
		transcriber:          transcriber,
		transcriptionService: services.NewTranscriptionService(transcriber),
	}
}

func (a *Application) ApplicationConfig() *config.ApplicationConfig {
	return a.applicationConfig
}

func (a *Application) PipelineLoader() *model.PipelineLoader {
	return a.pipelineLoader
}

func (a *Application) Transcriber() *backend.Transcriber {
	return a.transcriber
}

func (a *Application) TranscriptionService() *services.TranscriptionService {
	return a.transcriptionService
}
