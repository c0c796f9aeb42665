package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/voxscribe/voxscribe/core/backend"
	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
	"github.com/voxscribe/voxscribe/pkg/format"
)

// Engine is the transcription engine contract the service delegates to.
type Engine interface {
	Transcribe(ctx context.Context, req backend.Request) (*backend.Result, error)
}

// TranscriptionOptions are the caller-selected knobs for one request.
type TranscriptionOptions struct {
	Model      schema.Model
	Language   schema.Language // empty means detect
	Format     schema.ResultFormat
	AlignMode  bool
	Preprocess bool
}

// TranscriptionService adapts an uploaded file to the engine contract: it
// materializes the upload into a scoped temporary path, runs the engine and
// shapes the result into the requested format. It holds no state beyond the
// engine reference.
type TranscriptionService struct {
	engine Engine
}

func NewTranscriptionService(engine Engine) *TranscriptionService {
	return &TranscriptionService{engine: engine}
}

// Transcribe runs one transcription for an uploaded file. The materialized
// file is deleted on every exit path.
func (s *TranscriptionService) Transcribe(ctx context.Context, file *multipart.FileHeader, opts TranscriptionOptions) (any, error) {
	// Reject an unsupported format before doing any work.
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnsupportedFormat, opts.Format)
	}

	audioPath, cleanup, err := materializeUpload(file)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := s.engine.Transcribe(ctx, backend.Request{
		AudioPath:  audioPath,
		Model:      opts.Model,
		Language:   opts.Language,
		AlignMode:  opts.AlignMode,
		Preprocess: opts.Preprocess,
	})
	if err != nil {
		return nil, err
	}

	return format.Response(opts.Format, result.Segments, result.Words, result.Aligned)
}

// materializeUpload copies the uploaded byte stream to a local file and
// returns its path together with a cleanup function removing it.
func materializeUpload(file *multipart.FileHeader) (string, func(), error) {
	src, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	if ext, contentType, err := audio.Identify(src); err == nil && ext != "" {
		log.Debug().Str("file", file.Filename).Str("detected", ext).Str("contentType", contentType).Msg("Identified uploaded audio")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp("", "voxscribe-upload")
	if err != nil {
		return "", nil, err
	}

	dst := filepath.Join(dir, path.Base(file.Filename))
	out, err := os.Create(dst)
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}

	log.Debug().Str("file", file.Filename).Str("path", dst).Msg("Upload materialized")
	return dst, func() { os.RemoveAll(dir) }, nil
}
