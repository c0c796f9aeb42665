package separator_test

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voxscribe/voxscribe/pkg/model"
	"github.com/voxscribe/voxscribe/pkg/separator"
)

type fakePipeline struct {
	err    error
	calls  int
	closed bool
}

func (f *fakePipeline) Separate(ctx context.Context, inputPath, vocalsPath, instrumentalPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := os.WriteFile(vocalsPath, []byte("vocals"), 0600); err != nil {
		return err
	}
	return os.WriteFile(instrumentalPath, []byte("instrumental"), 0600)
}

func (f *fakePipeline) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Separator", func() {
	var (
		pipeline *fakePipeline
		loads    int
		sep      *separator.Separator
	)

	BeforeEach(func() {
		pipeline = &fakePipeline{}
		loads = 0
		sep = separator.New(func() (model.SeparatorPipeline, error) {
			loads++
			return pipeline, nil
		})
	})

	It("loads the pipeline once across preload and use", func() {
		Expect(sep.Preload()).To(Succeed())

		tracks, err := sep.Separate(context.Background(), "input.wav")
		Expect(err).ToNot(HaveOccurred())
		defer tracks.Remove()

		Expect(loads).To(Equal(1))
	})

	It("produces two distinct track files", func() {
		tracks, err := sep.Separate(context.Background(), "input.wav")
		Expect(err).ToNot(HaveOccurred())
		defer tracks.Remove()

		Expect(tracks.Vocals).ToNot(Equal(tracks.Instrumental))
		Expect(tracks.Vocals).To(BeAnExistingFile())
		Expect(tracks.Instrumental).To(BeAnExistingFile())
	})

	It("removes both track files on Remove, tolerating already-deleted files", func() {
		tracks, err := sep.Separate(context.Background(), "input.wav")
		Expect(err).ToNot(HaveOccurred())

		Expect(os.Remove(tracks.Vocals)).To(Succeed())
		tracks.Remove()

		Expect(tracks.Vocals).ToNot(BeAnExistingFile())
		Expect(tracks.Instrumental).ToNot(BeAnExistingFile())
	})

	It("cleans up any partial output when separation fails", func() {
		pipeline.err = errors.New("separation crashed")

		tracks, err := sep.Separate(context.Background(), "input.wav")
		Expect(err).To(MatchError(pipeline.err))
		Expect(tracks).To(BeNil())
	})

	It("closes the pipeline exactly once and drops it", func() {
		Expect(sep.Preload()).To(Succeed())
		Expect(sep.Close()).To(Succeed())
		Expect(pipeline.closed).To(BeTrue())

		// A later call reloads.
		tracks, err := sep.Separate(context.Background(), "input.wav")
		Expect(err).ToNot(HaveOccurred())
		defer tracks.Remove()
		Expect(loads).To(Equal(2))
	})
})
