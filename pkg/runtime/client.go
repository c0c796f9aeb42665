package runtime

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
	"github.com/voxscribe/voxscribe/pkg/model"
)

// Client speaks the runner wire protocol: multipart uploads of raw waveform
// samples in, JSON results out.
type Client struct {
	address string
	http    *http.Client
}

func NewClient(address string) *Client {
	return &Client{address: address, http: &http.Client{}}
}

type transcribeResponse struct {
	Language schema.Language     `json:"language"`
	Segments []schema.RawSegment `json:"segments"`
}

type alignResponse struct {
	Segments     []schema.RawSegment  `json:"segments"`
	WordSegments []schema.WordSegment `json:"word_segments"`
}

// Transcribe decodes the waveform into raw segments. An empty language asks
// the pipeline to detect it.
func (c *Client) Transcribe(ctx context.Context, wave audio.Waveform, language schema.Language, batchSize, chunkSize int) (*model.TranscriptResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if language != "" {
		if err := mw.WriteField("language", language.String()); err != nil {
			return nil, err
		}
	}
	if err := mw.WriteField("batch_size", strconv.Itoa(batchSize)); err != nil {
		return nil, err
	}
	if err := mw.WriteField("chunk_size", strconv.Itoa(chunkSize)); err != nil {
		return nil, err
	}
	if err := writeWaveform(mw, wave); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res transcribeResponse
	if err := c.post(ctx, "/transcribe", mw.FormDataContentType(), body, &res); err != nil {
		return nil, err
	}
	return &model.TranscriptResult{Language: res.Language, Segments: res.Segments}, nil
}

// Align runs forced alignment of the segments against the waveform.
func (c *Client) Align(ctx context.Context, segments []schema.RawSegment, wave audio.Waveform) (*model.AlignResult, error) {
	segJSON, err := json.Marshal(segments)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("segments", string(segJSON)); err != nil {
		return nil, err
	}
	if err := writeWaveform(mw, wave); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res alignResponse
	if err := c.post(ctx, "/align", mw.FormDataContentType(), body, &res); err != nil {
		return nil, err
	}
	return &model.AlignResult{Segments: res.Segments, Words: res.WordSegments}, nil
}

type separateRequest struct {
	InputPath        string `json:"input_path"`
	VocalsPath       string `json:"vocals_path"`
	InstrumentalPath string `json:"instrumental_path"`
}

// Separate splits the input file into a vocals track and an instrumental
// track at the given paths. The runner shares the local filesystem.
func (c *Client) Separate(ctx context.Context, inputPath, vocalsPath, instrumentalPath string) error {
	payload, err := json.Marshal(separateRequest{
		InputPath:        inputPath,
		VocalsPath:       vocalsPath,
		InstrumentalPath: instrumentalPath,
	})
	if err != nil {
		return err
	}
	return c.post(ctx, "/separate", "application/json", bytes.NewReader(payload), &struct{}{})
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.address+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError turns a non-200 runner response into a classified error.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var er schema.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != nil {
		if er.Error.Kind == "resource_exhausted" {
			return fmt.Errorf("%w: %s", schema.ErrResourceExhausted, er.Error.Message)
		}
		return fmt.Errorf("runner error: %s", er.Error.Message)
	}
	return fmt.Errorf("runner returned status %d: %s", resp.StatusCode, raw)
}

// writeWaveform adds the waveform as a little-endian float32 file part.
func writeWaveform(mw *multipart.Writer, wave audio.Waveform) error {
	part, err := mw.CreateFormFile("waveform", "waveform.f32le")
	if err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, sample := range wave {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(sample))
		if _, err := part.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
