package cli

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/application"
	cliContext "github.com/voxscribe/voxscribe/core/cli/context"
	"github.com/voxscribe/voxscribe/core/config"
	"github.com/voxscribe/voxscribe/core/http"
	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/signals"
)

type RunCMD struct {
	Device             string        `env:"VOXSCRIBE_DEVICE,DEVICE" default:"cpu" help:"Device to run inference on (cpu, cuda, cuda:N)" group:"inference"`
	ComputeType        string        `env:"VOXSCRIBE_COMPUTE_TYPE,COMPUTE_TYPE" default:"float32" help:"Numeric precision for inference (float32, float16, int8)" group:"inference"`
	DownloadRoot       string        `env:"VOXSCRIBE_DOWNLOAD_ROOT,DOWNLOAD_ROOT" type:"path" default:"models" help:"Directory model artifacts are downloaded and cached in" group:"storage"`
	RunnerBin          string        `env:"VOXSCRIBE_RUNNER_BIN,RUNNER_BIN" default:"voxscribe-runner" help:"Executable hosting the inference pipelines" group:"inference"`
	RunnerStartTimeout time.Duration `env:"VOXSCRIBE_RUNNER_START_TIMEOUT" default:"10m" help:"How long a runner may take to become ready, first-use downloads included" group:"inference"`
	BatchSize          int           `env:"VOXSCRIBE_BATCH_SIZE,BATCH_SIZE" default:"4" help:"Batch size for decoding" group:"performance"`
	ChunkSize          int           `env:"VOXSCRIBE_CHUNK_SIZE,CHUNK_SIZE" default:"10" help:"Chunk size in seconds for audio splitting" group:"performance"`
	PreloadModels      []string      `env:"VOXSCRIBE_PRELOAD_MODELS,PRELOAD_MODELS" default:"small" help:"ASR models to load eagerly at startup" group:"models"`

	Address          string   `env:"VOXSCRIBE_ADDRESS,ADDRESS" default:":8080" help:"Bind address for the API server" group:"api"`
	UploadLimit      int      `env:"VOXSCRIBE_UPLOAD_LIMIT,UPLOAD_LIMIT" default:"15" help:"Default upload-limit in MB" group:"api"`
	CORS             bool     `env:"VOXSCRIBE_CORS,CORS" help:"" group:"api"`
	CORSAllowOrigins string   `env:"VOXSCRIBE_CORS_ALLOW_ORIGINS,CORS_ALLOW_ORIGINS" group:"api"`
	APIKeys          []string `env:"VOXSCRIBE_API_KEY,API_KEY" help:"List of API Keys to enable API authentication. When this is set, all requests must be authenticated with one of these API keys" group:"api"`
	ConfigDir        string   `env:"VOXSCRIBE_CONFIG_DIR" type:"path" help:"Directory for dynamic configuration files (currently api_keys.json)" group:"storage"`
}

func (r *RunCMD) Run(ctx *cliContext.Context) error {
	models := make([]schema.Model, 0, len(r.PreloadModels))
	for _, m := range r.PreloadModels {
		models = append(models, schema.Model(m))
	}

	opts := []config.AppOption{
		config.WithDevice(r.Device),
		config.WithComputeType(r.ComputeType),
		config.WithDownloadRoot(r.DownloadRoot),
		config.WithRunnerBin(r.RunnerBin),
		config.WithRunnerStartTimeout(r.RunnerStartTimeout),
		config.WithBatchSize(r.BatchSize),
		config.WithChunkSize(r.ChunkSize),
		config.WithPreloadModels(models...),
		config.WithAddress(r.Address),
		config.WithUploadLimitMB(r.UploadLimit),
		config.WithCors(r.CORS),
		config.WithCorsAllowOrigins(r.CORSAllowOrigins),
		config.WithApiKeys(r.APIKeys),
		config.WithDynamicConfigDir(r.ConfigDir),
		config.WithDebug(ctx.Debug || (ctx.LogLevel != nil && *ctx.LogLevel == "debug")),
	}

	app, err := application.New(opts...)
	if err != nil {
		return err
	}

	signals.OnTermination(func() {
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Shutdown reported errors")
		}
	})

	e, err := http.App(app)
	if err != nil {
		return err
	}

	log.Info().Str("address", r.Address).Msg("API server listening")
	return e.Start(r.Address)
}
