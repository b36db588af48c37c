package scanner

import (
	"strings"

	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/transcode"
	"github.com/goliatone/go-faqmigrate/internal/validation"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/tidwall/gjson"
)

const (
	// NoteParseFailed is recorded when a block payload cannot be read.
	NoteParseFailed = "Could not parse Rank Math FAQ JSON for at least one block; left block unchanged."
	// NoteConversionFailed is recorded when no question of a block survived conversion.
	NoteConversionFailed = "Failed converting at least one block; left that block unchanged."
)

// Builder converts the questions of one block into replacement markup.
// An empty result means the block must stay untouched.
type Builder interface {
	Build(questions []transcode.Question, documentID int64) string
}

// PayloadValidator checks block payloads before questions are extracted.
type PayloadValidator interface {
	ValidateJSON(raw []byte) error
}

// Result summarises the scan of one document.
type Result struct {
	Content      string
	SourceBlocks int
	Converted    int
	Preview      string
	Note         string
}

// Matched reports whether the document carried at least one source block,
// regardless of whether any conversion succeeded.
func (r Result) Matched() bool {
	return r.SourceBlocks > 0
}

// Changed reports whether the scan produced different content.
func (r Result) Changed(original string) bool {
	return r.Content != original
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithBuilder overrides the block builder.
func WithBuilder(builder Builder) Option {
	return func(s *Scanner) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// WithValidator overrides the payload validator.
func WithValidator(validator PayloadValidator) Option {
	return func(s *Scanner) {
		if validator != nil {
			s.validator = validator
		}
	}
}

// WithLogger sets the logger used for per-block diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scanner finds legacy FAQ blocks in document content and rewrites them.
type Scanner struct {
	builder   Builder
	validator PayloadValidator
	logger    interfaces.Logger
}

// New constructs a Scanner with the default transcoder and payload schema.
func New(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		builder: transcode.New(),
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.validator == nil {
		validator, err := validation.FAQPayloadValidator()
		if err != nil {
			return nil, err
		}
		s.validator = validator
	}
	return s, nil
}

// Scan rewrites every convertible source block in content. Blocks that cannot
// be parsed or converted are left byte-identical; only the first note of a
// document is kept.
func (s *Scanner) Scan(content string, documentID int64) Result {
	result := Result{Content: content}
	matches := FindBlocks(content)
	if len(matches) == 0 {
		return result
	}

	logger := logging.WithDocument(s.logger, documentID)

	var b strings.Builder
	b.Grow(len(content))
	cursor := 0
	for _, match := range matches {
		result.SourceBlocks++
		b.WriteString(content[cursor:match.Start])
		cursor = match.End

		questions, ok := s.parse(match.Payload)
		if !ok {
			logger.Debug("scanner.block.parse_failed", "offset", match.Start)
			result.addNote(NoteParseFailed)
			b.WriteString(match.Raw)
			continue
		}

		replacement := s.builder.Build(questions, documentID)
		if replacement == "" {
			logger.Debug("scanner.block.empty_conversion", "offset", match.Start, "questions", len(questions))
			result.addNote(NoteConversionFailed)
			b.WriteString(match.Raw)
			continue
		}

		result.Converted++
		if result.Preview == "" {
			result.Preview = replacement
		}
		b.WriteString(replacement)
	}
	b.WriteString(content[cursor:])
	result.Content = b.String()
	return result
}

func (r *Result) addNote(note string) {
	if r.Note == "" {
		r.Note = note
	}
}

// parse validates the payload and extracts its questions. Entries that are not
// objects are dropped; non-string fields are read as their JSON text.
func (s *Scanner) parse(payload string) ([]transcode.Question, bool) {
	if err := s.validator.ValidateJSON([]byte(payload)); err != nil {
		return nil, false
	}
	list := gjson.Get(payload, "questions")
	if !list.IsArray() {
		return nil, false
	}
	questions := make([]transcode.Question, 0, len(list.Array()))
	list.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			return true
		}
		questions = append(questions, transcode.Question{
			Title:   fieldString(entry.Get("title")),
			Content: fieldString(entry.Get("content")),
		})
		return true
	})
	return questions, true
}

func fieldString(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		return value.Str
	case gjson.Null:
		return ""
	default:
		if !value.Exists() {
			return ""
		}
		return value.String()
	}
}
