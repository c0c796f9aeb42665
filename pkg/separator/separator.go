package separator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/pkg/model"
)

// Tracks are the two files produced by one separation call. The separator
// never deletes its own outputs; the caller removes them once consumed.
type Tracks struct {
	Vocals       string
	Instrumental string
}

// Remove deletes both track files. A file that is already gone is not an
// error.
func (t *Tracks) Remove() {
	for _, path := range []string{t.Vocals, t.Instrumental} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", path).Msg("Failed to remove separated track")
		}
	}
}

// Separator wraps the single fixed vocal separation pipeline. The pipeline
// is loaded once (eagerly at startup via Preload) and kept for the life of
// the process.
type Separator struct {
	mu       sync.Mutex
	pipeline model.SeparatorPipeline
	factory  func() (model.SeparatorPipeline, error)
}

func New(factory func() (model.SeparatorPipeline, error)) *Separator {
	return &Separator{factory: factory}
}

// Preload loads the separation pipeline eagerly.
func (s *Separator) Preload() error {
	_, err := s.get()
	return err
}

func (s *Separator) get() (model.SeparatorPipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil {
		return s.pipeline, nil
	}

	log.Debug().Msg("Loading separation pipeline")
	p, err := s.factory()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load separation pipeline")
		return nil, err
	}
	s.pipeline = p
	log.Debug().Msg("Loaded separation pipeline")
	return p, nil
}

// Separate splits the input file into a vocals track and an instrumental
// track, each a newly created temporary file. Any separation error is fatal
// to the call.
func (s *Separator) Separate(ctx context.Context, inputPath string) (*Tracks, error) {
	p, err := s.get()
	if err != nil {
		return nil, err
	}

	dir := os.TempDir()
	tracks := &Tracks{
		Vocals:       filepath.Join(dir, uuid.New().String()+".wav"),
		Instrumental: filepath.Join(dir, uuid.New().String()+".wav"),
	}

	if err := p.Separate(ctx, inputPath, tracks.Vocals, tracks.Instrumental); err != nil {
		tracks.Remove()
		return nil, err
	}

	log.Debug().Str("vocals", tracks.Vocals).Str("instrumental", tracks.Instrumental).Msg("Audio separation completed")
	return tracks, nil
}

// Close stops the separation pipeline if it was loaded.
func (s *Separator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline == nil {
		return nil
	}
	err := s.pipeline.Close()
	s.pipeline = nil
	return err
}
