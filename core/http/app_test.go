package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voxscribe/voxscribe/core/application"
	"github.com/voxscribe/voxscribe/core/config"
	voxhttp "github.com/voxscribe/voxscribe/core/http"
	"github.com/voxscribe/voxscribe/core/schema"
	"github.com/voxscribe/voxscribe/pkg/audio"
	"github.com/voxscribe/voxscribe/pkg/model"
)

type stubASR struct {
	err error
}

func (s *stubASR) Transcribe(ctx context.Context, wave audio.Waveform, language schema.Language, batchSize, chunkSize int) (*model.TranscriptResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.TranscriptResult{
		Language: schema.LanguageEnglish,
		Segments: []schema.RawSegment{{Text: "hello world", Start: 0, End: 2}},
	}, nil
}

func (s *stubASR) Close() error { return nil }

type stubAlign struct{}

func (s *stubAlign) Align(ctx context.Context, segments []schema.RawSegment, wave audio.Waveform) (*model.AlignResult, error) {
	return &model.AlignResult{
		Segments: segments,
		Words:    []schema.WordSegment{{Word: "hello", Start: 0, End: 1}},
	}, nil
}

func (s *stubAlign) Close() error { return nil }

type stubSeparator struct{}

func (s *stubSeparator) Separate(ctx context.Context, inputPath, vocalsPath, instrumentalPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(vocalsPath, data, 0600); err != nil {
		return err
	}
	return os.WriteFile(instrumentalPath, data, 0600)
}

func (s *stubSeparator) Close() error { return nil }

var baseURL string

func wavBytes() []byte {
	path := filepath.Join(GinkgoT().TempDir(), "fixture.wav")
	f, err := os.Create(path)
	Expect(err).ToNot(HaveOccurred())

	data := make([]int, 800)
	for i := range data {
		data[i] = int(1500 * math.Sin(float64(i)/15))
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	Expect(enc.Write(&gaudio.IntBuffer{
		Data:           data,
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 16000},
		SourceBitDepth: 16,
	})).To(Succeed())
	Expect(enc.Close()).To(Succeed())
	Expect(f.Close()).To(Succeed())

	raw, err := os.ReadFile(path)
	Expect(err).ToNot(HaveOccurred())
	return raw
}

func transcribeRequest(fields map[string]string, fileContent []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		Expect(w.WriteField(key, value)).To(Succeed())
	}
	if fileContent != nil {
		part, err := w.CreateFormFile("file", "speech.wav")
		Expect(err).ToNot(HaveOccurred())
		_, err = part.Write(fileContent)
		Expect(err).ToNot(HaveOccurred())
	}
	Expect(w.Close()).To(Succeed())

	req := newRequest(http.MethodPost, baseURL+"/v1/audio/transcriptions", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newRequest(method, target string, body io.Reader) *http.Request {
	req, err := http.NewRequest(method, target, body)
	Expect(err).ToNot(HaveOccurred())
	return req
}

var _ = Describe("API server", func() {
	var (
		asr *stubASR
		app *application.Application
		e   *echo.Echo
	)

	startServer := func(opts ...config.AppOption) {
		asr = &stubASR{}

		defaults := []config.AppOption{
			config.WithDownloadRoot(GinkgoT().TempDir()),
			config.WithPreloadModels(schema.ModelSmall),
		}
		appConfig := config.NewApplicationConfig(append(defaults, opts...)...)

		var err error
		app, err = application.NewWithFactories(appConfig, model.Factories{
			ASR: func(m schema.Model) (model.ASRPipeline, error) {
				return asr, nil
			},
			Align: func(lang schema.Language) (model.AlignPipeline, error) {
				return &stubAlign{}, nil
			},
			Separator: func() (model.SeparatorPipeline, error) {
				return &stubSeparator{}, nil
			},
		})
		Expect(err).ToNot(HaveOccurred())

		e, err = voxhttp.App(app)
		Expect(err).ToNot(HaveOccurred())

		go func() {
			_ = e.Start("127.0.0.1:0")
		}()
		Eventually(func() error {
			addr := e.ListenerAddr()
			if addr == nil {
				return fmt.Errorf("not listening yet")
			}
			baseURL = "http://" + addr.String()
			return nil
		}).Should(Succeed())

		DeferCleanup(func() {
			Expect(e.Shutdown(context.Background())).To(Succeed())
			Expect(app.Shutdown()).To(Succeed())
		})
	}

	do := func(req *http.Request) (*http.Response, []byte) {
		resp, err := http.DefaultClient.Do(req)
		Expect(err).ToNot(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Body.Close()).To(Succeed())
		return resp, body
	}

	Context("without API keys", func() {
		BeforeEach(func() {
			startServer()
		})

		It("answers health probes", func() {
			resp, _ := do(newRequest(http.MethodGet, baseURL+"/healthz", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("lists the supported models", func() {
			resp, body := do(newRequest(http.MethodGet, baseURL+"/v1/audio/models", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var list schema.ModelList
			Expect(json.Unmarshal(body, &list)).To(Succeed())
			Expect(list.Models).To(Equal(schema.Models()))
		})

		It("lists the supported languages", func() {
			resp, body := do(newRequest(http.MethodGet, baseURL+"/v1/audio/languages", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var list schema.LanguageList
			Expect(json.Unmarshal(body, &list)).To(Succeed())
			Expect(list.Languages).To(Equal(schema.Languages()))
		})

		It("transcribes an upload with the default aligned full format", func() {
			req := transcribeRequest(nil, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result schema.TranscriptionFullResult
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Segments).To(HaveLen(1))
			Expect(result.Segments[0].Text).To(Equal("hello world"))
			Expect(result.Segments[0].Number).To(Equal(1))
			Expect(result.Words).To(HaveLen(1))
		})

		It("returns plain text when asked for the text format", func() {
			req := transcribeRequest(map[string]string{
				"result_format":       "text",
				"align_mode":          "false",
				"audio_preprocessing": "false",
			}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result schema.TranscriptionTextResult
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Text).To(Equal("hello world"))
		})

		It("rejects a request without a file", func() {
			req := transcribeRequest(map[string]string{"model": "small"}, nil)
			resp, _ := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown model as an invalid argument", func() {
			req := transcribeRequest(map[string]string{"model": "gigantic"}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

			var er schema.ErrorResponse
			Expect(json.Unmarshal(body, &er)).To(Succeed())
			Expect(er.Error).ToNot(BeNil())
			Expect(er.Error.Kind).To(Equal("invalid_argument"))
			Expect(er.Error.Message).To(ContainSubstring("gigantic"))
		})

		It("rejects an unsupported result format as an invalid argument", func() {
			req := transcribeRequest(map[string]string{"result_format": "yaml"}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

			var er schema.ErrorResponse
			Expect(json.Unmarshal(body, &er)).To(Succeed())
			Expect(er.Error).ToNot(BeNil())
			Expect(er.Error.Kind).To(Equal("invalid_argument"))
		})

		It("rejects an unsupported language hint as an invalid argument", func() {
			req := transcribeRequest(map[string]string{"language": "fr"}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

			var er schema.ErrorResponse
			Expect(json.Unmarshal(body, &er)).To(Succeed())
			Expect(er.Error).ToNot(BeNil())
			Expect(er.Error.Kind).To(Equal("invalid_argument"))
		})

		It("rejects a malformed boolean field as an invalid argument", func() {
			req := transcribeRequest(map[string]string{"align_mode": "sometimes"}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

			var er schema.ErrorResponse
			Expect(json.Unmarshal(body, &er)).To(Succeed())
			Expect(er.Error).ToNot(BeNil())
			Expect(er.Error.Kind).To(Equal("invalid_argument"))
		})

		It("maps device memory exhaustion to a structured 503", func() {
			asr.err = fmt.Errorf("%w: CUDA out of memory", schema.ErrResourceExhausted)

			req := transcribeRequest(map[string]string{"audio_preprocessing": "false"}, wavBytes())
			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))

			var er schema.ErrorResponse
			Expect(json.Unmarshal(body, &er)).To(Succeed())
			Expect(er.Error).ToNot(BeNil())
			Expect(er.Error.Kind).To(Equal("resource_exhausted"))
		})
	})

	Context("with API keys configured", func() {
		BeforeEach(func() {
			startServer(config.WithApiKeys([]string{"sk-test"}))
		})

		It("rejects a request without a bearer token", func() {
			resp, _ := do(newRequest(http.MethodGet, baseURL+"/v1/audio/models", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts a request with a valid key", func() {
			req := newRequest(http.MethodGet, baseURL+"/v1/audio/models", nil)
			req.Header.Set("Authorization", "Bearer sk-test")
			resp, _ := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("leaves health probes open", func() {
			resp, _ := do(newRequest(http.MethodGet, baseURL+"/healthz", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
