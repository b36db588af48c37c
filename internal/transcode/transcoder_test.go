package transcode

import (
	"strings"
	"testing"
)

func TestBuildSingleQuestion(t *testing.T) {
	tr := New()
	got := tr.Build([]Question{{Title: "<b>Q1</b>", Content: "A1"}}, 7)

	want := "<!-- wp:wpseopress/faq-block-v2 -->\n" +
		"<div class=\"wp-block-wpseopress-faq-block-v2\">" +
		"\n\n  <!-- wp:details {\"placeholder\":\"Type a question\"} -->\n" +
		"  <details id=\"q1-b4dc67\" class=\"wp-block-details\"><summary>Q1</summary>\n" +
		"  <!-- wp:paragraph {\"placeholder\":\"Add your answer\"} -->\n" +
		"  <p>A1</p>\n" +
		"  <!-- /wp:paragraph --></details>\n" +
		"  <!-- /wp:details -->" +
		"\n</div>\n" +
		"<!-- /wp:wpseopress/faq-block-v2 -->"
	if got != want {
		t.Fatalf("unexpected block\nwant: %q\ngot:  %q", want, got)
	}
}

func TestBuildSkipsIncompleteQuestions(t *testing.T) {
	tr := New()
	items := tr.BuildItems([]Question{
		{Title: "", Content: "A"},
		{Title: "<i></i>", Content: "A"},
		{Title: "Q", Content: ""},
		{Title: "What is it?", Content: "Thing"},
	}, 42)
	if len(items) != 1 {
		t.Fatalf("expected 1 surviving item, got %d", len(items))
	}
	if items[0].Question != "What is it?" {
		t.Fatalf("unexpected question %q", items[0].Question)
	}
	if !strings.HasSuffix(items[0].AnchorID, "-06959a") {
		t.Fatalf("unexpected anchor id %q", items[0].AnchorID)
	}
}

func TestBuildReturnsEmptyWhenNothingSurvives(t *testing.T) {
	tr := New()
	if got := tr.Build([]Question{{Title: "", Content: "A"}}, 1); got != "" {
		t.Fatalf("expected empty block, got %q", got)
	}
	if got := tr.Build(nil, 1); got != "" {
		t.Fatalf("expected empty block for nil questions, got %q", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	tr := New()
	questions := []Question{
		{Title: "Shipping?", Content: "u003cpu003eTwo daysu003c/pu003e"},
		{Title: "Returns?", Content: "<ul><li>30 days</li></ul>"},
	}
	first := tr.Build(questions, 99)
	second := New().Build(questions, 99)
	if first != second {
		t.Fatalf("expected byte identical output\nfirst:  %q\nsecond: %q", first, second)
	}
	if strings.Count(first, "<!-- wp:details ") != 2 {
		t.Fatalf("expected two detail items, got %q", first)
	}
}

func TestAnchorIDDependsOnDocument(t *testing.T) {
	a := AnchorID(7, "Q1")
	b := AnchorID(8, "Q1")
	if a != "q1-b4dc67" {
		t.Fatalf("unexpected anchor %q", a)
	}
	if b != "q1-4087cb" {
		t.Fatalf("unexpected anchor %q", b)
	}
}

func TestAnchorIDFallsBackWhenSlugEmpty(t *testing.T) {
	if got := AnchorID(7, "???"); got != "faq-53bcfb" {
		t.Fatalf("expected fallback anchor, got %q", got)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	sanitizer := DefaultSanitizer()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "inline text wrapped", in: "A1", want: "<p>A1</p>"},
		{name: "block kept", in: "<ul><li>x</li></ul>", want: "<ul><li>x</li></ul>"},
		{name: "paragraph kept", in: "  <p>Hi</p>  ", want: "<p>Hi</p>"},
		{name: "unclosed tag balanced", in: "<strong>bold", want: "<p><strong>bold</strong></p>"},
		{name: "script removed", in: "<script>alert(1)</script>Hi", want: "<p>Hi</p>"},
		{name: "loose escapes repaired", in: "u003cemu003eHiu003c/emu003e", want: "<p><em>Hi</em></p>"},
		{name: "json escapes repaired", in: `\u003ch3\u003eTitle\u003c/h3\u003e`, want: "<h3>Title</h3>"},
		{name: "entities decoded then escaped once", in: "Tom &amp; Jerry", want: "<p>Tom &amp; Jerry</p>"},
		{name: "event handler stripped", in: `<p onclick="x()">Hi</p>`, want: "<p>Hi</p>"},
		{name: "quotes stay literal", in: `He said "hi" & it's u0022oku0022`, want: `<p>He said "hi" &amp; it's "ok"</p>`},
		{name: "quotes inside elements stay literal", in: `<strong>"bold"</strong>`, want: `<p><strong>"bold"</strong></p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeAnswer(tc.in, sanitizer); got != tc.want {
				t.Fatalf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	cases := map[string]string{
		"<b>Q1</b>":                 "Q1",
		"  plain  ":                 "plain",
		"<p>Why <em>this</em>?</p>": "Why this?",
		"<style>p{}</style>Styled":  "Styled",
		"<b>Q &amp; A</b>":          "Q &amp; A",
		"<p>Hello  \n world</p>":    "Hello  \n world",
		"Hello  \n world":           "Hello  \n world",
		"":                          "",
	}
	for in, want := range cases {
		if got := StripTags(in); got != want {
			t.Fatalf("StripTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithSanitizerOverride(t *testing.T) {
	tr := New(WithSanitizer(SanitizerFunc(strings.ToUpper)))
	items := tr.BuildItems([]Question{{Title: "Q", Content: "<p>loud</p>"}}, 1)
	if len(items) != 1 || items[0].AnswerHTML != "<p>LOUD</p>" {
		t.Fatalf("expected custom sanitizer output, got %+v", items)
	}
}

func TestQuestionEntitiesAreKeptVerbatim(t *testing.T) {
	items := New().BuildItems([]Question{{Title: "<b>Q &amp; A</b>", Content: "Both."}}, 5)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if items[0].Question != "Q &amp; A" || items[0].AnchorID != "q-amp-a-1be045" {
		t.Fatalf("unexpected item %+v", items[0])
	}
	block := Render(items)
	if !strings.Contains(block, "<summary>Q &amp; A</summary>") {
		t.Fatalf("expected entity not to be escaped twice, got %q", block)
	}
}

func TestEscapeText(t *testing.T) {
	cases := map[string]string{
		`Tom & Jerry`:      `Tom &amp; Jerry`,
		`Tom &amp; Jerry`:  `Tom &amp; Jerry`,
		`<b> "x" 'y'`:      `&lt;b&gt; &quot;x&quot; &#039;y&#039;`,
		`&#169; &#xA9; &x`: `&#169; &#xA9; &amp;x`,
	}
	for in, want := range cases {
		if got := EscapeText(in); got != want {
			t.Fatalf("EscapeText(%q) = %q, want %q", in, got, want)
		}
	}
}
