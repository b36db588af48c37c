package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	faqmigrate "github.com/goliatone/go-faqmigrate"
	"github.com/goliatone/go-faqmigrate/internal/di"
	"github.com/goliatone/go-faqmigrate/internal/documents"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyFAQ = `<!-- wp:rank-math/faq-block {"questions":[{"id":"q1","title":"Why?","content":"Because."}]} --><div></div><!-- /wp:rank-math/faq-block -->`

// useStore routes every module built by the CLI to store and records the
// last config it received.
func useStore(t *testing.T, store *documents.MemoryStore) *faqmigrate.Config {
	t.Helper()
	color.NoColor = true
	var seen faqmigrate.Config
	previous := moduleBuilder
	moduleBuilder = func(cfg faqmigrate.Config) (*faqmigrate.Module, error) {
		seen = cfg
		return faqmigrate.New(cfg, di.WithDocumentStore(store))
	}
	t.Cleanup(func() { moduleBuilder = previous })
	return &seen
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func post(id int64) interfaces.Document {
	return interfaces.Document{ID: id, Title: "FAQ post", PostType: "post", Status: "publish", Content: legacyFAQ}
}

func TestRunDryPrintsSummaryAndLeavesContent(t *testing.T) {
	store := documents.NewMemoryStore(post(4))
	useStore(t, store)

	out, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN (manual)")
	assert.Contains(t, out, "Changed:          1")
	assert.Contains(t, out, "#4 FAQ post (1/1)")

	doc, err := store.Fetch(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, legacyFAQ, doc.Content)
}

func TestRunApplyWritesDocuments(t *testing.T) {
	store := documents.NewMemoryStore(post(9))
	useStore(t, store)

	out, err := execute(t, "run", "--mode", "apply", "--format", "json")
	require.NoError(t, err)

	var result faqmigrate.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, faqmigrate.ModeApply, result.Mode)
	assert.Equal(t, 1, result.Changed)
	assert.EqualValues(t, 9, result.Checkpoint)

	doc, err := store.Fetch(context.Background(), 9)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "wp:wpseopress/faq-block-v2")
}

func TestRunRejectsUnknownMode(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	_, err := execute(t, "run", "--mode", "later")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid mode "later"`)
}

func TestRunMarkdownFormat(t *testing.T) {
	useStore(t, documents.NewMemoryStore(post(2)))

	out, err := execute(t, "run", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## FAQ migration (DRY, manual)")
	assert.Contains(t, out, "#### Preview for post 2")
}

func TestRunUnknownFormatFails(t *testing.T) {
	useStore(t, documents.NewMemoryStore(post(2)))

	_, err := execute(t, "run", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunScheduledUsesScheduledTrigger(t *testing.T) {
	useStore(t, documents.NewMemoryStore(post(5)))

	out, err := execute(t, "run-scheduled")
	require.NoError(t, err)
	assert.Contains(t, out, "APPLY (scheduled)")
}

func TestResetPrintsConfirmation(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	out, err := execute(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset")
}

func TestSettingsSetValidatesAndPrints(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	out, err := execute(t, "settings", "set", "--batch-size", "50", "--schedule", "--interval", "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings saved.")
	assert.Contains(t, out, "Batch size:  50")
	assert.Contains(t, out, "Schedule:    on (daily)")

	_, err = execute(t, "settings", "set", "--batch-size", "9000")
	require.Error(t, err)
}

func TestSettingsShowPrintsDefaults(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Post type:   any")
	assert.Contains(t, out, "Max per run: 100")
	assert.Contains(t, out, "Schedule:    off")
}

func TestScheduleStatusDisabledByDefault(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	out, err := execute(t, "schedule", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule: disabled")
}

func TestScheduleStatusFromConfigFile(t *testing.T) {
	useStore(t, documents.NewMemoryStore())
	path := filepath.Join(t.TempDir(), "faqmigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedule:\n  enabled: true\n  interval: hourly\n"), 0o600))

	out, err := execute(t, "--config", path, "schedule", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule: enabled (hourly)")
	assert.Contains(t, out, "Next run:")
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	seen := useStore(t, documents.NewMemoryStore())
	t.Setenv("FAQMIGRATE_RUN_BATCH_SIZE", "7")
	t.Setenv("FAQMIGRATE_RUN_POST_TYPE", "page")

	_, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Equal(t, 7, seen.Run.BatchSize)
	assert.Equal(t, "page", seen.Run.PostType)
}

func TestFlagsOverrideStorageDriver(t *testing.T) {
	useStore(t, documents.NewMemoryStore())

	_, err := execute(t, "--storage-driver", "bogus", "settings", "show")
	require.Error(t, err)
}
