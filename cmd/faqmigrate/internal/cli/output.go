package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/goliatone/go-faqmigrate/internal/report"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatHTML     = "html"
	formatJSON     = "json"
)

// writeResult renders result to w in the requested format.
func writeResult(w io.Writer, result *faqmigrate.RunResult, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatText:
		writeText(w, result)
		return nil
	case formatMarkdown:
		_, err := io.WriteString(w, report.Markdown(result))
		return err
	case formatHTML:
		html, err := report.NewRenderer().HTML(result)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown output format %q: expected text, markdown, html or json", format)
	}
}

func writeText(w io.Writer, result *faqmigrate.RunResult) {
	title := color.New(color.Bold)
	if result.Mode == faqmigrate.ModeApply {
		title.Fprintf(w, "FAQ migration: APPLY (%s)\n", result.Trigger)
	} else {
		title.Fprintf(w, "FAQ migration: DRY RUN (%s)\n", result.Trigger)
	}
	fmt.Fprintf(w, "  Scanned:          %d\n", result.Scanned)
	fmt.Fprintf(w, "  Matched:          %d\n", result.Matched)
	fmt.Fprintf(w, "  Changed:          %s\n", color.GreenString("%d", result.Changed))
	fmt.Fprintf(w, "  Blocks converted: %d\n", result.BlocksConverted)
	fmt.Fprintf(w, "  Checkpoint:       %d\n", result.Checkpoint)

	for _, item := range result.Items {
		marker := color.HiBlackString("-")
		if item.Changed {
			marker = color.GreenString("+")
		}
		line := fmt.Sprintf("  %s #%d %s (%d/%d)", marker, item.PostID, item.PostTitle, item.Converted, item.SourceBlocks)
		if item.Note != "" {
			line += " " + color.YellowString(item.Note)
		}
		fmt.Fprintln(w, line)
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(w, color.RedString("  error: %s", msg))
	}
}
