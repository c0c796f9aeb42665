package runtime

import (
	"context"

	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
	"github.com/voxscribe/voxscribe/pkg/model"
)

// ASR is an ASR pipeline hosted by a dedicated runner process.
type ASR struct {
	runner *Runner
	client *Client
}

// NewASR spawns a runner hosting the given ASR model.
func NewASR(cfg Config, m schema.Model) (*ASR, error) {
	runner, err := StartRunner(cfg, "asr-"+m.String(), "asr", "--model", m.String())
	if err != nil {
		return nil, err
	}
	return &ASR{runner: runner, client: NewClient(runner.address)}, nil
}

func (a *ASR) Transcribe(ctx context.Context, wave audio.Waveform, language schema.Language, batchSize, chunkSize int) (*model.TranscriptResult, error) {
	return a.client.Transcribe(ctx, wave, language, batchSize, chunkSize)
}

func (a *ASR) Close() error { return a.runner.Stop() }

// Align is an alignment pipeline hosted by a dedicated runner process.
type Align struct {
	runner *Runner
	client *Client
}

// NewAlign spawns a runner hosting the alignment model for lang.
func NewAlign(cfg Config, lang schema.Language) (*Align, error) {
	runner, err := StartRunner(cfg, "align-"+lang.String(), "align", "--language", lang.String())
	if err != nil {
		return nil, err
	}
	return &Align{runner: runner, client: NewClient(runner.address)}, nil
}

func (a *Align) Align(ctx context.Context, segments []schema.RawSegment, wave audio.Waveform) (*model.AlignResult, error) {
	return a.client.Align(ctx, segments, wave)
}

func (a *Align) Close() error { return a.runner.Stop() }

// Separator is the vocal separation pipeline hosted by a dedicated runner
// process. One fixed model, loaded once.
type Separator struct {
	runner *Runner
	client *Client
}

func NewSeparator(cfg Config) (*Separator, error) {
	runner, err := StartRunner(cfg, "separator", "separate")
	if err != nil {
		return nil, err
	}
	return &Separator{runner: runner, client: NewClient(runner.address)}, nil
}

func (s *Separator) Separate(ctx context.Context, inputPath, vocalsPath, instrumentalPath string) error {
	return s.client.Separate(ctx, inputPath, vocalsPath, instrumentalPath)
}

func (s *Separator) Close() error { return s.runner.Stop() }

// Factories returns pipeline factories backed by runner processes, for
// injection into the pipeline loader.
func Factories(cfg Config) model.Factories {
	return model.Factories{
		ASR: func(m schema.Model) (model.ASRPipeline, error) {
			return NewASR(cfg, m)
		},
		Align: func(lang schema.Language) (model.AlignPipeline, error) {
			return NewAlign(cfg, lang)
		},
		Separator: func() (model.SeparatorPipeline, error) {
			return NewSeparator(cfg)
		},
	}
}
