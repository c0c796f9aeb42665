package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
	"github.com/voxscribe/voxscribe/pkg/model"
	"github.com/voxscribe/voxscribe/pkg/separator"
)

// Request carries everything one transcription needs. It is request-scoped
// and never persisted.
type Request struct {
	AudioPath  string
	Model      schema.Model
	Language   schema.Language // empty means detect
	AlignMode  bool
	Preprocess bool
}

// Result is the engine output. Words is populated only when alignment was
// requested and succeeded; Aligned distinguishes that case from a degraded
// segments-only result.
type Result struct {
	Segments []schema.RawSegment
	Words    []schema.WordSegment
	Language schema.Language
	Aligned  bool
}

// Transcriber orchestrates one transcription: optional vocal separation,
// waveform loading, ASR decode, optional forced alignment. It owns the
// failure recovery policy: a resource exhaustion failure during decode or
// alignment evicts every cached pipeline before the error is surfaced, so
// subsequent requests can reload on reclaimed device memory.
type Transcriber struct {
	loader    *model.PipelineLoader
	separator *separator.Separator
	batchSize int
	chunkSize int
}

func NewTranscriber(loader *model.PipelineLoader, sep *separator.Separator, batchSize, chunkSize int) *Transcriber {
	return &Transcriber{
		loader:    loader,
		separator: sep,
		batchSize: batchSize,
		chunkSize: chunkSize,
	}
}

// Transcribe runs the full pipeline for one request. An abandoned caller
// does not interrupt inference mid-flight: the request runs to completion or
// failure so cached pipelines are never left in an inconsistent state.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	wave, err := t.loadWaveform(ctx, req)
	if err != nil {
		return nil, err
	}

	tr, err := t.decode(ctx, wave, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Segments: tr.Segments, Language: tr.Language}
	if req.AlignMode {
		if err := t.align(ctx, wave, tr, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *Transcriber) loadWaveform(ctx context.Context, req Request) (audio.Waveform, error) {
	if !req.Preprocess {
		return audio.Load(req.AudioPath)
	}

	tracks, err := t.separator.Separate(ctx, req.AudioPath)
	if err != nil {
		log.Error().Err(err).Str("file", req.AudioPath).Msg("Audio separation failed")
		return nil, err
	}
	defer tracks.Remove()

	return audio.Load(tracks.Vocals)
}

func (t *Transcriber) decode(ctx context.Context, wave audio.Waveform, req Request) (*model.TranscriptResult, error) {
	asr, err := t.loader.GetOrLoadASR(req.Model)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("model", req.Model.String()).
		Str("language", req.Language.String()).
		Int("batchSize", t.batchSize).
		Int("chunkSize", t.chunkSize).
		Msg("Transcribing")

	tr, err := asr.Transcribe(ctx, wave, req.Language, t.batchSize, t.chunkSize)
	if err != nil {
		if errors.Is(err, schema.ErrResourceExhausted) {
			log.Error().Err(err).Str("model", req.Model.String()).Str("file", req.AudioPath).Msg("Transcription ran out of device memory, evicting pipelines")
			t.evict()
		} else {
			log.Error().Err(err).Str("model", req.Model.String()).Str("file", req.AudioPath).Msg("Transcription failed")
		}
		return nil, err
	}

	log.Debug().Str("language", tr.Language.String()).Int("segments", len(tr.Segments)).Msg("Transcribed audio file")
	return tr, nil
}

// align refines result in place when alignment succeeds. A resource
// exhaustion failure evicts every cached pipeline and fails the request;
// any other failure leaves the raw segments in place with no word data.
func (t *Transcriber) align(ctx context.Context, wave audio.Waveform, tr *model.TranscriptResult, result *Result) error {
	pipeline, err := t.loader.GetOrLoadAlign(tr.Language)
	if err != nil {
		log.Warn().Err(err).Str("language", tr.Language.String()).Msg("Alignment unavailable, falling back to raw segments")
		return nil
	}

	aligned, err := pipeline.Align(ctx, tr.Segments, wave)
	if err != nil {
		if errors.Is(err, schema.ErrResourceExhausted) {
			log.Error().Err(err).Str("language", tr.Language.String()).Msg("Alignment ran out of device memory, evicting pipelines")
			t.evict()
			return err
		}
		log.Warn().Err(err).Str("language", tr.Language.String()).Msg("Alignment failed, falling back to raw segments")
		return nil
	}

	segments := make([]schema.RawSegment, 0, len(aligned.Segments))
	for _, seg := range aligned.Segments {
		segments = append(segments, schema.RawSegment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}

	result.Segments = segments
	result.Words = aligned.Words
	result.Aligned = true
	return nil
}

func (t *Transcriber) evict() {
	if err := t.loader.EvictAll(); err != nil {
		log.Error().Err(err).Msg("Eviction reported errors")
	}
}
