package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/schema"
)

// PipelineLoader memoizes loaded inference pipelines: ASR pipelines keyed by
// model architecture and alignment pipelines keyed by language code. It is a
// pure get-or-load cache over the bounded set of supported identities; there
// is no TTL and no size-based eviction. A single coarse mutex is held across
// the whole load so the same key is never loaded twice concurrently and an
// eviction never interleaves with an in-flight load.
type PipelineLoader struct {
	mu        sync.Mutex
	asr       map[schema.Model]ASRPipeline
	align     map[schema.Language]AlignPipeline
	factories Factories
}

func NewPipelineLoader(factories Factories) *PipelineLoader {
	return &PipelineLoader{
		asr:       make(map[schema.Model]ASRPipeline),
		align:     make(map[schema.Language]AlignPipeline),
		factories: factories,
	}
}

// GetOrLoadASR returns the cached ASR pipeline for m, loading it on first
// use. Loading is synchronous and never retried; a load failure is surfaced
// to the caller.
func (pl *PipelineLoader) GetOrLoadASR(m schema.Model) (ASRPipeline, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown model %q", schema.ErrModelLoad, m)
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if p, ok := pl.asr[m]; ok {
		log.Debug().Str("model", m.String()).Msg("ASR pipeline already loaded")
		return p, nil
	}

	log.Debug().Str("model", m.String()).Msg("Loading ASR pipeline")
	p, err := pl.factories.ASR(m)
	if err != nil {
		log.Error().Err(err).Str("model", m.String()).Msg("Failed to load ASR pipeline")
		return nil, fmt.Errorf("%w: asr %s: %w", schema.ErrModelLoad, m, err)
	}

	pl.asr[m] = p
	log.Debug().Str("model", m.String()).Msg("Loaded ASR pipeline")
	return p, nil
}

// GetOrLoadAlign returns the cached alignment pipeline for lang, loading it
// on first use.
func (pl *PipelineLoader) GetOrLoadAlign(lang schema.Language) (AlignPipeline, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: unsupported language %q", schema.ErrModelLoad, lang)
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if p, ok := pl.align[lang]; ok {
		log.Debug().Str("language", lang.String()).Msg("Align pipeline already loaded")
		return p, nil
	}

	log.Debug().Str("language", lang.String()).Msg("Loading align pipeline")
	p, err := pl.factories.Align(lang)
	if err != nil {
		log.Error().Err(err).Str("language", lang.String()).Msg("Failed to load align pipeline")
		return nil, fmt.Errorf("%w: align %s: %w", schema.ErrModelLoad, lang, err)
	}

	pl.align[lang] = p
	log.Debug().Str("language", lang.String()).Msg("Loaded align pipeline")
	return p, nil
}

// Preload eagerly loads alignment pipelines for the given languages and ASR
// pipelines for the given models. The first failure aborts the preload.
func (pl *PipelineLoader) Preload(models []schema.Model, langs []schema.Language) error {
	for _, lang := range langs {
		if _, err := pl.GetOrLoadAlign(lang); err != nil {
			return err
		}
	}
	for _, m := range models {
		if _, err := pl.GetOrLoadASR(m); err != nil {
			return err
		}
	}
	return nil
}

// EvictAll drops every cached pipeline from both maps and closes each one,
// releasing the memory it held on the compute device. This is the only way
// cached pipeline memory is reclaimed short of process exit.
func (pl *PipelineLoader) EvictAll() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	log.Debug().Msg("Evicting all cached pipelines")

	var err error
	for m, p := range pl.asr {
		if e := p.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("closing asr %s: %w", m, e))
		}
		delete(pl.asr, m)
	}
	for lang, p := range pl.align {
		if e := p.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("closing align %s: %w", lang, e))
		}
		delete(pl.align, lang)
	}

	log.Debug().Msg("Eviction complete")
	return err
}

// LoadedASRModels returns the model identities currently cached.
func (pl *PipelineLoader) LoadedASRModels() []schema.Model {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	models := make([]schema.Model, 0, len(pl.asr))
	for m := range pl.asr {
		models = append(models, m)
	}
	return models
}

// LoadedAlignLanguages returns the language codes currently cached.
func (pl *PipelineLoader) LoadedAlignLanguages() []schema.Language {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	langs := make([]schema.Language, 0, len(pl.align))
	for lang := range pl.align {
		langs = append(langs, lang)
	}
	return langs
}
