package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxscribe/voxscribe/core/schema"
)

// Text joins every segment's trimmed text with a single space.
func Text(segments []schema.RawSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, strings.TrimSpace(s.Text))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Subtitles numbers the segments 1-based in original order, trimming each
// segment's text.
func Subtitles(segments []schema.RawSegment) []schema.Segment {
	out := make([]schema.Segment, 0, len(segments))
	for i, s := range segments {
		out = append(out, schema.Segment{
			Number: i + 1,
			Text:   strings.TrimSpace(s.Text),
			Start:  s.Start,
			End:    s.End,
		})
	}
	return out
}

// Response builds the typed payload for the requested format. Words are
// carried only when alignment actually produced them; a degraded result is
// returned as segments with a null word list, never with fabricated words.
// An unsupported format is a caller error with no partial output.
func Response(format schema.ResultFormat, segments []schema.RawSegment, words []schema.WordSegment, aligned bool) (any, error) {
	switch format {
	case schema.ResultFormatText:
		return schema.TranscriptionTextResult{Text: Text(segments)}, nil
	case schema.ResultFormatSrt:
		return schema.TranscriptionSrtResult{Segments: Subtitles(segments)}, nil
	case schema.ResultFormatFull:
		res := schema.TranscriptionFullResult{Segments: Subtitles(segments)}
		if aligned {
			res.Words = words
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: %q", schema.ErrUnsupportedFormat, format)
}

// SRT renders segments as classic SRT subtitle text.
func SRT(segments []schema.RawSegment) string {
	var out strings.Builder
	for i, s := range segments {
		if i > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "%d\n%s --> %s\n%s\n",
			i+1,
			durationStr(s.Start),
			durationStr(s.End),
			strings.TrimSpace(s.Text))
	}
	return out.String()
}

func durationStr(seconds float64) string {
	m := time.Duration(seconds * float64(time.Second)).Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", m/3600000, (m/60000)%60, (m/1000)%60, m%1000)
}
