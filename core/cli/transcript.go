package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/application"
	"github.com/voxscribe/voxscribe/core/backend"
	cliContext "github.com/voxscribe/voxscribe/core/cli/context"
	"github.com/voxscribe/voxscribe/core/config"
	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/format"
)

type TranscriptCMD struct {
	Filename string `arg:""`

	Model        string `short:"m" default:"small" help:"ASR model to use"`
	Language     string `short:"l" help:"Language of the audio file"`
	Align        bool   `short:"a" default:"true" help:"Enable word-level timestamp alignment"`
	Preprocess   bool   `short:"p" default:"true" help:"Enable vocal separation preprocessing"`
	Srt          bool   `help:"Print SRT subtitle text instead of plain text"`
	Device       string `env:"VOXSCRIBE_DEVICE,DEVICE" default:"cpu" help:"Device to run inference on"`
	ComputeType  string `env:"VOXSCRIBE_COMPUTE_TYPE,COMPUTE_TYPE" default:"float32" help:"Numeric precision for inference"`
	DownloadRoot string `env:"VOXSCRIBE_DOWNLOAD_ROOT,DOWNLOAD_ROOT" type:"path" default:"models" help:"Directory model artifacts are downloaded and cached in"`
	RunnerBin    string `env:"VOXSCRIBE_RUNNER_BIN,RUNNER_BIN" default:"voxscribe-runner" help:"Executable hosting the inference pipelines"`
}

func (t *TranscriptCMD) Run(ctx *cliContext.Context) error {
	model := schema.Model(t.Model)
	if !model.Valid() {
		return fmt.Errorf("unknown model %q", t.Model)
	}

	language := schema.Language(t.Language)
	if t.Language != "" && !language.Valid() {
		return fmt.Errorf("unsupported language %q", t.Language)
	}

	app, err := application.New(
		config.WithDevice(t.Device),
		config.WithComputeType(t.ComputeType),
		config.WithDownloadRoot(t.DownloadRoot),
		config.WithRunnerBin(t.RunnerBin),
		config.WithPreloadModels(model),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Shutdown reported errors")
		}
	}()

	result, err := app.Transcriber().Transcribe(app.ApplicationConfig().Context, backend.Request{
		AudioPath:  t.Filename,
		Model:      model,
		Language:   language,
		AlignMode:  t.Align,
		Preprocess: t.Preprocess,
	})
	if err != nil {
		return err
	}

	if t.Srt {
		fmt.Println(format.SRT(result.Segments))
		return nil
	}
	fmt.Println(format.Text(result.Segments))
	return nil
}
