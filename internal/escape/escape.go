// Package escape repairs answer text that went through a broken JSON round trip
// before it reached the FAQ block payload.
//
// Two corruptions are handled:
//   - proper JSON escapes such as \u003c that were never decoded
//   - escapes whose backslash was stripped, leaving u003c, u003e or u0022 in the text
package escape

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

const escapePrefix = `\u`

// looseSignatures mark text that carries unprefixed escapes. The loose pass only
// runs when one of them is present so ordinary words such as "u2000" survive.
var looseSignatures = []string{"u003c", "u003e", "u0022"}

var looseEscape = regexp.MustCompile(`u([0-9a-fA-F]{4})`)

// Normalize decodes proper escapes first, then loose ones. It never fails: when a
// pass cannot decode the input, the text from before that pass is kept.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = DecodeJSONEscapes(s)
	return DecodeLooseEscapes(s)
}

// DecodeJSONEscapes decodes \uXXXX sequences by reading the whole string as a
// JSON string literal. Quotes, stray backslashes and control characters are
// escaped first so they do not break the decode.
func DecodeJSONEscapes(s string) string {
	if !strings.Contains(s, escapePrefix) {
		return s
	}
	literal := `"` + quoteForJSON(s) + `"`
	var decoded string
	if err := json.Unmarshal([]byte(literal), &decoded); err != nil {
		return s
	}
	return decoded
}

// DecodeLooseEscapes replaces every uXXXX run with its code point when the text
// carries the u003c/u003e/u0022 signature.
func DecodeLooseEscapes(s string) string {
	if !hasLooseSignature(s) {
		return s
	}
	return looseEscape.ReplaceAllStringFunc(s, func(match string) string {
		return html.UnescapeString("&#x" + match[1:] + ";")
	})
}

func hasLooseSignature(s string) bool {
	for _, sig := range looseSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}

// quoteForJSON escapes the characters that would make s an invalid JSON string
// body while keeping backslashes that start a valid \uXXXX escape.
func quoteForJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if isUnicodeEscape(s, i) {
				b.WriteByte(c)
				continue
			}
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[c>>4])
				b.WriteByte(hexDigits[c&0x0f])
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

const hexDigits = "0123456789abcdef"

func isUnicodeEscape(s string, i int) bool {
	if i+6 > len(s) {
		return false
	}
	if s[i+1] != 'u' {
		return false
	}
	for _, c := range []byte(s[i+2 : i+6]) {
		if !isHex(c) {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
