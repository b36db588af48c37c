package transcode

import (
	"html"
	"strings"
)

const (
	// TargetBlockName is the block the legacy FAQ is converted into.
	TargetBlockName = "wpseopress/faq-block-v2"

	containerOpen  = "<!-- wp:wpseopress/faq-block-v2 -->\n<div class=\"wp-block-wpseopress-faq-block-v2\">"
	containerClose = "\n</div>\n<!-- /wp:wpseopress/faq-block-v2 -->"
)

// Option customises a Transcoder.
type Option func(*Transcoder)

// WithSanitizer overrides the answer sanitizer. Passing nil keeps the default.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(t *Transcoder) {
		if sanitizer != nil {
			t.sanitizer = sanitizer
		}
	}
}

// Transcoder converts the questions of one legacy FAQ block into target block markup.
type Transcoder struct {
	sanitizer Sanitizer
}

// New constructs a Transcoder using the post-content sanitizer by default.
func New(opts ...Option) *Transcoder {
	t := &Transcoder{sanitizer: DefaultSanitizer()}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// BuildItems converts the questions that carry both a title and an answer.
// Entries missing either are skipped silently.
func (t *Transcoder) BuildItems(questions []Question, documentID int64) []Item {
	items := make([]Item, 0, len(questions))
	for _, q := range questions {
		question := StripTags(q.Title)
		if question == "" || q.Content == "" {
			continue
		}
		items = append(items, Item{
			Question:   question,
			AnswerHTML: NormalizeAnswer(q.Content, t.sanitizer),
			AnchorID:   AnchorID(documentID, question),
		})
	}
	return items
}

// Build returns the complete target block, or an empty string when no
// question survived conversion. Callers must keep the source block in that case.
func (t *Transcoder) Build(questions []Question, documentID int64) string {
	items := t.BuildItems(questions, documentID)
	if len(items) == 0 {
		return ""
	}
	return Render(items)
}

// Render serialises items into the target block markup.
func Render(items []Item) string {
	var b strings.Builder
	b.WriteString(containerOpen)
	for _, item := range items {
		writeItem(&b, item)
	}
	b.WriteString(containerClose)
	return b.String()
}

func writeItem(b *strings.Builder, item Item) {
	b.WriteString("\n\n  <!-- wp:details {\"placeholder\":\"Type a question\"} -->\n")
	b.WriteString(`  <details id="`)
	b.WriteString(html.EscapeString(item.AnchorID))
	b.WriteString(`" class="wp-block-details"><summary>`)
	b.WriteString(EscapeText(item.Question))
	b.WriteString("</summary>\n")
	b.WriteString("  <!-- wp:paragraph {\"placeholder\":\"Add your answer\"} -->\n")
	b.WriteString("  ")
	b.WriteString(item.AnswerHTML)
	b.WriteString("\n")
	b.WriteString("  <!-- /wp:paragraph --></details>\n")
	b.WriteString("  <!-- /wp:details -->")
}
