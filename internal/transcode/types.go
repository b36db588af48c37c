package transcode

// Question is one entry of the legacy FAQ payload.
type Question struct {
	Title   string
	Content string
}

// Item is one converted FAQ entry of the target block.
type Item struct {
	Question   string
	AnswerHTML string
	AnchorID   string
}

// Sanitizer filters answer markup down to the allowed post-content tag set.
type Sanitizer interface {
	Sanitize(html string) string
}

// SanitizerFunc adapts a function into a Sanitizer.
type SanitizerFunc func(string) string

// Sanitize implements Sanitizer.
func (fn SanitizerFunc) Sanitize(html string) string {
	return fn(html)
}
