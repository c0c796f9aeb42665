package model

import (
	"context"

	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
)

// TranscriptResult is the raw output of one ASR decode call.
type TranscriptResult struct {
	Language schema.Language
	Segments []schema.RawSegment
}

// AlignResult is the output of forced alignment: normalized segments plus
// per-word timings.
type AlignResult struct {
	Segments []schema.RawSegment
	Words    []schema.WordSegment
}

// ASRPipeline decodes a waveform into timestamped text segments.
type ASRPipeline interface {
	Transcribe(ctx context.Context, wave audio.Waveform, language schema.Language, batchSize, chunkSize int) (*TranscriptResult, error)
	Close() error
}

// AlignPipeline refines segment timestamps down to the word level by forced
// alignment of already-decoded text against the waveform.
type AlignPipeline interface {
	Align(ctx context.Context, segments []schema.RawSegment, wave audio.Waveform) (*AlignResult, error)
	Close() error
}

// SeparatorPipeline splits a mixed audio file into a vocals track and an
// instrumental track, written to the given paths.
type SeparatorPipeline interface {
	Separate(ctx context.Context, inputPath, vocalsPath, instrumentalPath string) error
	Close() error
}

// Factories construct pipeline instances on demand. Injected at loader
// construction so tests can substitute doubles.
type Factories struct {
	ASR       func(model schema.Model) (ASRPipeline, error)
	Align     func(lang schema.Language) (AlignPipeline, error)
	Separator func() (SeparatorPipeline, error)
}
