package schema

// Model identifies one of the supported ASR model architectures.
type Model string

const (
	ModelSmall  Model = "small"
	ModelMedium Model = "medium"
	ModelTurbo  Model = "turbo"
)

// Models lists every supported ASR model architecture.
func Models() []Model {
	return []Model{ModelSmall, ModelMedium, ModelTurbo}
}

func (m Model) Valid() bool {
	switch m {
	case ModelSmall, ModelMedium, ModelTurbo:
		return true
	}
	return false
}

func (m Model) String() string { return string(m) }

// Language is a two-letter code identifying an alignment model.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageEnglish Language = "en"
)

// Languages lists every language an alignment model is available for.
func Languages() []Language {
	return []Language{LanguageRussian, LanguageEnglish}
}

func (l Language) Valid() bool {
	switch l {
	case LanguageRussian, LanguageEnglish:
		return true
	}
	return false
}

func (l Language) String() string { return string(l) }

// ResultFormat selects the response shape of a transcription.
type ResultFormat string

const (
	ResultFormatText ResultFormat = "text"
	ResultFormatSrt  ResultFormat = "srt"
	ResultFormatFull ResultFormat = "full"
)

func (f ResultFormat) Valid() bool {
	switch f {
	case ResultFormatText, ResultFormatSrt, ResultFormatFull:
		return true
	}
	return false
}

func (f ResultFormat) String() string { return string(f) }

// RawSegment is a decoded unit of speech as produced by the ASR pipeline,
// before subtitle numbering is assigned.
type RawSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a numbered subtitle segment. Numbers are 1-based and assigned
// at formatting time, in original segment order.
type Segment struct {
	Number int     `json:"number"`
	Text   string  `json:"text"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// WordSegment is a single aligned word. Present only when alignment ran and
// succeeded.
type WordSegment struct {
	Word  string   `json:"word"`
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Score *float64 `json:"score,omitempty"`
}

type TranscriptionTextResult struct {
	Text string `json:"text"`
}

type TranscriptionSrtResult struct {
	Segments []Segment `json:"segments"`
}

type TranscriptionFullResult struct {
	Segments []Segment     `json:"segments"`
	Words    []WordSegment `json:"words"`
}

type ModelList struct {
	Models []Model `json:"models"`
}

type LanguageList struct {
	Languages []Language `json:"languages"`
}
