package report

import (
	"fmt"
	"strings"
)

// Markdown renders the run result as a Markdown document: a summary list, an
// item table, collapsed previews for dry runs and the error list.
func Markdown(result *RunResult) string {
	if result == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "## FAQ migration (%s, %s)\n\n", strings.ToUpper(string(result.Mode)), result.Trigger)
	fmt.Fprintf(&b, "- Scanned: %d\n", result.Scanned)
	fmt.Fprintf(&b, "- Matched: %d\n", result.Matched)
	fmt.Fprintf(&b, "- Changed: %d\n", result.Changed)
	fmt.Fprintf(&b, "- Blocks converted: %d\n", result.BlocksConverted)
	fmt.Fprintf(&b, "- Checkpoint: %d\n", result.Checkpoint)
	if result.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", result.RunID)
	}

	if len(result.Items) > 0 {
		b.WriteString("\n### Details\n\n")
		b.WriteString("| Post | Title | Blocks | Converted | Changed | Note |\n")
		b.WriteString("|---:|---|---:|---:|:---:|---|\n")
		for _, item := range result.Items {
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %s | %s |\n",
				item.PostID,
				tableCell(item.PostTitle),
				item.SourceBlocks,
				item.Converted,
				yesNo(item.Changed),
				tableCell(item.Note),
			)
		}

		for _, item := range result.Items {
			if item.Preview == "" {
				continue
			}
			fmt.Fprintf(&b, "\n#### Preview for post %d\n\n", item.PostID)
			fence := codeFence(item.Preview)
			fmt.Fprintf(&b, "%shtml\n%s\n%s\n", fence, item.Preview, fence)
		}
	}

	if len(result.Errors) > 0 {
		b.WriteString("\n### Errors\n\n")
		for _, msg := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", singleLine(msg))
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func tableCell(s string) string {
	s = singleLine(s)
	return strings.ReplaceAll(s, "|", `\|`)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// codeFence returns a backtick fence longer than any run inside body.
func codeFence(body string) string {
	longest, run := 0, 0
	for _, r := range body {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
