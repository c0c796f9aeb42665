package config

import (
	"context"
	"time"

	"github.com/voxscribe/voxscribe/core/schema"
)

// ApplicationConfig holds every setting the transcription core consumes.
type ApplicationConfig struct {
	Context context.Context

	// Inference placement.
	Device      string
	ComputeType string

	// Where model artifacts are downloaded and cached.
	DownloadRoot string

	// RunnerBin is the executable hosting the inference pipelines.
	RunnerBin string
	// RunnerStartTimeout bounds runner startup, including first-use
	// artifact downloads.
	RunnerStartTimeout time.Duration

	// Decode tuning.
	BatchSize int
	ChunkSize int

	// ASR models warmed eagerly at startup. Alignment models for all
	// supported languages and the separation model are always preloaded.
	PreloadModels []schema.Model

	// API surface.
	Address          string
	UploadLimitMB    int
	CORS             bool
	CORSAllowOrigins string
	ApiKeys          []string
	DynamicConfigDir string

	Debug bool
}

type AppOption func(*ApplicationConfig)

func NewApplicationConfig(o ...AppOption) *ApplicationConfig {
	opt := &ApplicationConfig{
		Context:       context.Background(),
		Device:        "cpu",
		ComputeType:   "float32",
		DownloadRoot:  "models",
		RunnerBin:     "voxscribe-runner",
		BatchSize:     4,
		ChunkSize:     10,
		PreloadModels: []schema.Model{schema.ModelSmall},
		Address:       ":8080",
		UploadLimitMB: 15,
	}
	for _, oo := range o {
		oo(opt)
	}
	return opt
}

func WithContext(ctx context.Context) AppOption {
	return func(o *ApplicationConfig) {
		o.Context = ctx
	}
}

func WithDevice(device string) AppOption {
	return func(o *ApplicationConfig) {
		o.Device = device
	}
}

func WithComputeType(computeType string) AppOption {
	return func(o *ApplicationConfig) {
		o.ComputeType = computeType
	}
}

func WithDownloadRoot(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.DownloadRoot = path
	}
}

func WithRunnerBin(bin string) AppOption {
	return func(o *ApplicationConfig) {
		o.RunnerBin = bin
	}
}

func WithRunnerStartTimeout(d time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		o.RunnerStartTimeout = d
	}
}

func WithBatchSize(n int) AppOption {
	return func(o *ApplicationConfig) {
		if n > 0 {
			o.BatchSize = n
		}
	}
}

func WithChunkSize(n int) AppOption {
	return func(o *ApplicationConfig) {
		if n > 0 {
			o.ChunkSize = n
		}
	}
}

func WithPreloadModels(models ...schema.Model) AppOption {
	return func(o *ApplicationConfig) {
		if len(models) > 0 {
			o.PreloadModels = models
		}
	}
}

func WithAddress(addr string) AppOption {
	return func(o *ApplicationConfig) {
		o.Address = addr
	}
}

func WithUploadLimitMB(limit int) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadLimitMB = limit
	}
}

func WithCors(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.CORS = b
	}
}

func WithCorsAllowOrigins(origins string) AppOption {
	return func(o *ApplicationConfig) {
		o.CORSAllowOrigins = origins
	}
}

func WithApiKeys(keys []string) AppOption {
	return func(o *ApplicationConfig) {
		o.ApiKeys = keys
	}
}

func WithDynamicConfigDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		o.DynamicConfigDir = dir
	}
}

func WithDebug(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.Debug = b
	}
}
