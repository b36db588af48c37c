package testsupport

import (
	"fmt"
	"os"
	"strings"
)

// LegacyFAQBlock renders a Rank Math FAQ block carrying the supplied
// title/content pairs.
func LegacyFAQBlock(pairs ...string) string {
	var questions []string
	for i := 0; i+1 < len(pairs); i += 2 {
		questions = append(questions, fmt.Sprintf(`{"id":"faq-question-%d","title":%q,"content":%q,"visible":true}`, i/2+1, pairs[i], pairs[i+1]))
	}
	return `<!-- wp:rank-math/faq-block {"questions":[` + strings.Join(questions, ",") + `]} -->` +
		`<div class="wp-block-rank-math-faq-block"></div>` +
		`<!-- /wp:rank-math/faq-block -->`
}

// LoadFixture reads a fixture file and trims the trailing newline editors add.
func LoadFixture(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
