package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-faqmigrate/internal/documents"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/logging/console"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runlock"
	"github.com/goliatone/go-faqmigrate/internal/runtimeconfig"
	"github.com/goliatone/go-faqmigrate/internal/settings"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

func faqContent(question string) string {
	return "<p>before</p><!-- wp:rank-math/faq-block {\"questions\":[{\"title\":\"" + question +
		"\",\"content\":\"Answer\"}]} --><div>old</div><!-- /wp:rank-math/faq-block -->"
}

func post(id int64, content string) interfaces.Document {
	return interfaces.Document{
		ID:       id,
		Title:    fmt.Sprintf("Post %d", id),
		PostType: "post",
		Status:   "publish",
		Content:  content,
	}
}

func runConfig(batch, max int) runtimeconfig.RunConfig {
	return runtimeconfig.RunConfig{PostType: "any", Status: "publish", BatchSize: batch, MaxPerRun: max}
}

func newEngine(t *testing.T, store interfaces.DocumentStore, checkpoints interfaces.CheckpointStore, opts ...Option) *Engine {
	t.Helper()
	counter := 0
	opts = append([]Option{WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("run-%d", counter)
	})}, opts...)
	e, err := New(store, checkpoints, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestNewRequiresStores(t *testing.T) {
	if _, err := New(nil, settings.NewMemoryCheckpointStore()); err == nil {
		t.Fatalf("expected error without document store")
	}
	if _, err := New(documents.NewMemoryStore(), nil); err == nil {
		t.Fatalf("expected error without checkpoint store")
	}
}

func TestRunRejectsInvalidMode(t *testing.T) {
	e := newEngine(t, documents.NewMemoryStore(), settings.NewMemoryCheckpointStore())
	_, err := e.Run(context.Background(), Request{Mode: "preview", Config: runConfig(10, 10)})
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestDryRunDoesNotMutateDocuments(t *testing.T) {
	store := documents.NewMemoryStore(post(1, faqContent("Q1")), post(2, faqContent("Q2")))
	checkpoints := settings.NewMemoryCheckpointStore()
	e := newEngine(t, store, checkpoints)

	result, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(10, 100)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("dry run wrote %d documents", store.Writes())
	}
	if result.Scanned != 2 || result.Matched != 2 || result.Changed != 2 || result.BlocksConverted != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	for _, item := range result.Items {
		if !strings.Contains(item.Preview, "wp:wpseopress/faq-block-v2") {
			t.Fatalf("expected preview for post %d, got %q", item.PostID, item.Preview)
		}
		if !item.Changed {
			t.Fatalf("expected post %d to be reported as changed", item.PostID)
		}
	}
	if result.Checkpoint != 2 {
		t.Fatalf("expected checkpoint 2, got %d", result.Checkpoint)
	}
	if cp, _ := checkpoints.Load(context.Background()); cp != 2 {
		t.Fatalf("expected persisted checkpoint 2, got %d", cp)
	}
}

func TestApplyRunWritesAndIsIdempotent(t *testing.T) {
	store := documents.NewMemoryStore(post(1, faqContent("Q1")), post(2, "<p>no faq</p>"))
	checkpoints := settings.NewMemoryCheckpointStore()
	e := newEngine(t, store, checkpoints)

	result, err := e.Run(context.Background(), Request{Mode: report.ModeApply, Config: runConfig(10, 100)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Changed != 1 || store.Writes() != 1 {
		t.Fatalf("expected one write, got changed=%d writes=%d", result.Changed, store.Writes())
	}
	if result.Items[0].Preview != "" {
		t.Fatalf("apply runs must not carry previews")
	}
	migrated, _ := store.Get(1)
	if strings.Contains(migrated.Content, "rank-math") {
		t.Fatalf("expected source block to be replaced: %q", migrated.Content)
	}

	if err := checkpoints.Save(context.Background(), 0); err != nil {
		t.Fatalf("reset checkpoint: %v", err)
	}
	again, err := e.Run(context.Background(), Request{Mode: report.ModeApply, Config: runConfig(10, 100)})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Scanned != 0 || again.Changed != 0 || store.Writes() != 1 {
		t.Fatalf("expected no further work, got %+v writes=%d", again, store.Writes())
	}
	after, _ := store.Get(1)
	if after.Content != migrated.Content {
		t.Fatalf("second run changed migrated content")
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	var docs []interfaces.Document
	for id := int64(1); id <= 5; id++ {
		docs = append(docs, post(id, faqContent(fmt.Sprintf("Q%d", id))))
	}
	store := documents.NewMemoryStore(docs...)
	checkpoints := settings.NewMemoryCheckpointStore()
	e := newEngine(t, store, checkpoints)

	first, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(2, 3)})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Scanned != 3 || first.Checkpoint != 3 {
		t.Fatalf("expected 3 scanned up to checkpoint 3, got %+v", first)
	}

	second, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(2, 3)})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Scanned != 2 || second.Checkpoint != 5 {
		t.Fatalf("expected remaining 2 documents, got %+v", second)
	}
	if second.Items[0].PostID != 4 {
		t.Fatalf("expected resume at post 4, got %d", second.Items[0].PostID)
	}
}

type failingWriteStore struct {
	*documents.MemoryStore
	failID int64
}

func (s *failingWriteStore) Write(ctx context.Context, id int64, content string) error {
	if id == s.failID {
		return errors.New("disk full")
	}
	return s.MemoryStore.Write(ctx, id, content)
}

func TestWriteFailureIsRecordedAndRunContinues(t *testing.T) {
	store := &failingWriteStore{
		MemoryStore: documents.NewMemoryStore(post(1, faqContent("Q1")), post(2, faqContent("Q2"))),
		failID:      1,
	}
	recorder := &InMemoryRecorder{}
	e := newEngine(t, store, settings.NewMemoryCheckpointStore(), WithRecorder(recorder))

	result, err := e.Run(context.Background(), Request{Mode: report.ModeApply, Config: runConfig(10, 100)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Post 1: disk full" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Changed != 1 || result.BlocksConverted != 2 || result.Matched != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.Items[0].Changed {
		t.Fatalf("failed write must not be reported as changed")
	}
	if result.Checkpoint != 2 {
		t.Fatalf("expected checkpoint to advance past failed write, got %d", result.Checkpoint)
	}
	actions := recorder.Actions()
	if len(actions) != 2 || actions[0] != ActionWriteFailed || actions[1] != ActionWritten {
		t.Fatalf("unexpected audit actions: %v", actions)
	}
}

type vanishingStore struct {
	*documents.MemoryStore
	missing int64
}

func (s *vanishingStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	if id == s.missing {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	return s.MemoryStore.Fetch(ctx, id)
}

func TestMissingDocumentIsSkippedWithoutCheckpoint(t *testing.T) {
	store := &vanishingStore{
		MemoryStore: documents.NewMemoryStore(post(4, faqContent("Q4"))),
		missing:     4,
	}
	checkpoints := settings.NewMemoryCheckpointStore()
	e := newEngine(t, store, checkpoints)

	result, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(1, 1)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Scanned != 1 || len(result.Items) != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if cp, _ := checkpoints.Load(context.Background()); cp != 0 {
		t.Fatalf("missing document must not advance checkpoint, got %d", cp)
	}
}

type flakyStore struct {
	*documents.MemoryStore
	failing map[int64]bool
}

func (s *flakyStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	if s.failing[id] {
		return nil, errors.New("connection reset")
	}
	return s.MemoryStore.Fetch(ctx, id)
}

func TestFetchFailureKeepsCheckpointBelowDocument(t *testing.T) {
	store := &flakyStore{
		MemoryStore: documents.NewMemoryStore(post(1, faqContent("Q1")), post(2, faqContent("Q2"))),
		failing:     map[int64]bool{1: true},
	}
	checkpoints := settings.NewMemoryCheckpointStore()
	e := newEngine(t, store, checkpoints)
	ctx := context.Background()

	result, err := e.Run(ctx, Request{Mode: report.ModeApply, Config: runConfig(10, 10)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Post 1: connection reset" {
		t.Fatalf("expected fetch error for post 1, got %v", result.Errors)
	}
	if result.Changed != 1 || result.Checkpoint != 0 {
		t.Fatalf("expected post 2 converted with checkpoint held at 0, got %+v", result)
	}
	if cp, _ := checkpoints.Load(ctx); cp != 0 {
		t.Fatalf("expected persisted checkpoint 0, got %d", cp)
	}

	store.failing = nil
	second, err := e.Run(ctx, Request{Mode: report.ModeApply, Config: runConfig(10, 10)})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Changed != 1 || second.Checkpoint != 1 {
		t.Fatalf("expected post 1 converted on the next run, got %+v", second)
	}
	doc, _ := store.Fetch(ctx, 1)
	if strings.Contains(doc.Content, "rank-math") {
		t.Fatalf("expected post 1 converted, got %q", doc.Content)
	}
}

// contextStore records the logging fields carried by each Fetch context.
type contextStore struct {
	*documents.MemoryStore
	seen []map[string]any
}

func (s *contextStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	s.seen = append(s.seen, logging.ContextFields(ctx))
	return s.MemoryStore.Fetch(ctx, id)
}

func TestRunCarriesRunFieldsInContext(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf, TimeFunc: time.Now})
	store := &contextStore{MemoryStore: documents.NewMemoryStore(post(3, faqContent("Q3")))}
	e := newEngine(t, store, settings.NewMemoryCheckpointStore(), WithLogger(provider.GetLogger("faqmigrate.engine")))

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"command": "faqmigrate.run"})
	if _, err := e.Run(ctx, Request{Mode: report.ModeDry, Config: runConfig(10, 10)}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.seen) != 1 {
		t.Fatalf("expected one fetch, got %d", len(store.seen))
	}
	fields := store.seen[0]
	if fields["run_id"] != "run-1" || fields["post_id"] != int64(3) || fields["command"] != "faqmigrate.run" {
		t.Fatalf("unexpected context fields: %v", fields)
	}
	if !strings.Contains(buf.String(), "command=faqmigrate.run") {
		t.Fatalf("expected command field in engine logs, got %s", buf.String())
	}
}

type looseStore struct {
	*documents.MemoryStore
}

func (s looseStore) FetchIDs(ctx context.Context, query interfaces.DocumentQuery) ([]int64, error) {
	query.Contains = ""
	return s.MemoryStore.FetchIDs(ctx, query)
}

func TestDocumentWithoutMarkerAdvancesCheckpointOnly(t *testing.T) {
	store := looseStore{documents.NewMemoryStore(post(8, "<p>plain</p>"))}
	checkpoints := settings.NewMemoryCheckpointStore()
	recorder := &InMemoryRecorder{}
	e := newEngine(t, store, checkpoints, WithRecorder(recorder))

	result, err := e.Run(context.Background(), Request{Mode: report.ModeApply, Config: runConfig(5, 5)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Scanned != 1 || len(result.Items) != 0 || result.Matched != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if cp, _ := checkpoints.Load(context.Background()); cp != 8 {
		t.Fatalf("expected checkpoint 8, got %d", cp)
	}
	if actions := recorder.Actions(); len(actions) != 1 || actions[0] != ActionNoMarker {
		t.Fatalf("unexpected audit actions: %v", actions)
	}
}

func TestScheduledRunCapsItems(t *testing.T) {
	var docs []interfaces.Document
	for id := int64(1); id <= 25; id++ {
		docs = append(docs, post(id, faqContent(fmt.Sprintf("Q%d", id))))
	}
	store := documents.NewMemoryStore(docs...)
	e := newEngine(t, store, settings.NewMemoryCheckpointStore())

	result, err := e.Run(context.Background(), Request{
		Mode:    report.ModeApply,
		Trigger: report.TriggerScheduled,
		Config:  runConfig(10, 100),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Scanned != 25 || result.Changed != 25 {
		t.Fatalf("expected all documents processed, got %+v", result)
	}
	if len(result.Items) != report.ScheduledItemCap {
		t.Fatalf("expected %d items, got %d", report.ScheduledItemCap, len(result.Items))
	}
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	lock := runlock.NewMemory()
	if ok, _ := lock.Acquire(context.Background(), "someone-else", time.Minute); !ok {
		t.Fatalf("expected to take the lock")
	}
	e := newEngine(t, documents.NewMemoryStore(post(1, faqContent("Q1"))), settings.NewMemoryCheckpointStore(),
		WithRunLock(lock, time.Minute))

	result, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(1, 1)})
	if !errors.Is(err, interfaces.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result when locked")
	}
}

func TestRunReleasesLock(t *testing.T) {
	lock := runlock.NewMemory()
	e := newEngine(t, documents.NewMemoryStore(post(1, faqContent("Q1"))), settings.NewMemoryCheckpointStore(),
		WithRunLock(lock, time.Minute))

	if _, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(1, 1)}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if holder := lock.Holder(); holder != "" {
		t.Fatalf("expected lock released, held by %q", holder)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	e := newEngine(t, documents.NewMemoryStore(post(1, faqContent("Q1"))), settings.NewMemoryCheckpointStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Run(ctx, Request{Mode: report.ModeDry, Config: runConfig(1, 1)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Scanned != 0 {
		t.Fatalf("expected empty partial result, got %+v", result)
	}
}

type failingCheckpoints struct {
	settings.MemoryCheckpointStore
}

func (f *failingCheckpoints) Save(context.Context, int64) error {
	return errors.New("readonly")
}

func TestCheckpointSaveFailureStopsRun(t *testing.T) {
	store := documents.NewMemoryStore(post(1, faqContent("Q1")), post(2, faqContent("Q2")))
	e := newEngine(t, store, &failingCheckpoints{})

	result, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(10, 10)})
	if err == nil {
		t.Fatalf("expected checkpoint failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Fatalf("expected external category, got %v", err)
	}
	if result == nil || result.Scanned != 1 || !result.HasErrors() {
		t.Fatalf("expected partial result with error, got %+v", result)
	}
}

type failingFetchIDs struct {
	*documents.MemoryStore
}

func (failingFetchIDs) FetchIDs(context.Context, interfaces.DocumentQuery) ([]int64, error) {
	return nil, errors.New("connection reset")
}

func TestFetchIDsFailureIsReturned(t *testing.T) {
	e := newEngine(t, failingFetchIDs{documents.NewMemoryStore()}, settings.NewMemoryCheckpointStore())

	result, err := e.Run(context.Background(), Request{Mode: report.ModeDry, Config: runConfig(10, 10)})
	if err == nil || !strings.Contains(err.Error(), "fetch candidate ids") {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected recorded error, got %v", result.Errors)
	}
}
