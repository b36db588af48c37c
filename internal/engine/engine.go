package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/internal/report"
	"github.com/goliatone/go-faqmigrate/internal/runlock"
	"github.com/goliatone/go-faqmigrate/internal/scanner"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/google/uuid"
)

// DocumentScanner rewrites the legacy blocks of one document.
type DocumentScanner interface {
	Scan(content string, documentID int64) scanner.Result
}

// Option customises an Engine.
type Option func(*Engine)

// WithScanner overrides the document scanner.
func WithScanner(s DocumentScanner) Option {
	return func(e *Engine) {
		if s != nil {
			e.scanner = s
		}
	}
}

// WithRunLock guards runs with lock. A non-positive ttl uses runlock.DefaultTTL.
func WithRunLock(lock interfaces.RunLock, ttl time.Duration) Option {
	return func(e *Engine) {
		e.lock = lock
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder registers an audit recorder.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(generator func() string) Option {
	return func(e *Engine) {
		if generator != nil {
			e.newID = generator
		}
	}
}

// Engine pages through candidate documents, converts their legacy FAQ blocks
// and advances the checkpoint after every document.
type Engine struct {
	store       interfaces.DocumentStore
	checkpoints interfaces.CheckpointStore
	scanner     DocumentScanner
	lock        interfaces.RunLock
	lockTTL     time.Duration
	logger      interfaces.Logger
	recorder    Recorder
	now         func() time.Time
	newID       func() string
}

// New constructs an engine over the supplied stores.
func New(store interfaces.DocumentStore, checkpoints interfaces.CheckpointStore, opts ...Option) (*Engine, error) {
	if store == nil || checkpoints == nil {
		return nil, goerrors.New("engine requires a document store and a checkpoint store", goerrors.CategoryInternal).
			WithTextCode(codeMisconfigured)
	}
	e := &Engine{
		store:       store,
		checkpoints: checkpoints,
		lockTTL:     runlock.DefaultTTL,
		logger:      logging.NoOp(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.scanner == nil {
		s, err := scanner.New(scanner.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		e.scanner = s
	}
	return e, nil
}

// Run executes one migration run. The returned result is non-nil whenever the
// run started, including when it stopped early on an infrastructure error or
// context cancellation.
func (e *Engine) Run(ctx context.Context, req Request) (*report.RunResult, error) {
	if !req.Mode.Valid() {
		return nil, wrapValidation(fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode))
	}
	if req.Trigger == "" {
		req.Trigger = report.TriggerManual
	}
	cfg := req.Config.Normalize()
	runID := e.newID()
	ctx = logging.ContextWithFields(ctx, map[string]any{"run_id": runID})
	logger := logging.WithRunContext(e.logger, runID, string(req.Mode), string(req.Trigger)).WithContext(ctx)

	if e.lock != nil {
		acquired, err := e.lock.Acquire(ctx, runID, e.lockTTL)
		if err != nil {
			return nil, wrapExternal(err, codeLockFailed, "acquire run lock")
		}
		if !acquired {
			logger.Warn("engine.run.locked")
			return nil, interfaces.ErrRunInProgress
		}
		defer func() {
			if err := e.lock.Release(context.WithoutCancel(ctx), runID); err != nil {
				logger.Warn("engine.run.unlock_failed", "error", err)
			}
		}()
	}

	result := report.New(runID, req.Mode, req.Trigger, e.now())
	cursor, err := e.checkpoints.Load(ctx)
	if err != nil {
		result.AddError("Checkpoint load failed: " + err.Error())
		return e.finish(logger, result), wrapExternal(err, codeCheckpointLoad, "load checkpoint")
	}
	cursor = max(cursor, 0)
	result.Checkpoint = cursor

	logger.Info("engine.run.started",
		"checkpoint", cursor,
		"post_type", cfg.PostType,
		"status", cfg.Status,
		"batch_size", cfg.BatchSize,
		"max_per_run", cfg.MaxPerRun,
	)

	run := &runState{engine: e, req: req, result: result, logger: logger, cursor: cursor}
	processed := 0
	for processed < cfg.MaxPerRun {
		if err := ctx.Err(); err != nil {
			return e.finish(logger, result), wrapContext(err)
		}
		limit := min(cfg.BatchSize, cfg.MaxPerRun-processed)
		ids, err := e.store.FetchIDs(ctx, interfaces.DocumentQuery{
			After:    run.cursor,
			Limit:    limit,
			PostType: cfg.PostType,
			Status:   cfg.Status,
			Contains: scanner.SourceMarker,
		})
		if err != nil {
			result.AddError("Fetch failed: " + err.Error())
			return e.finish(logger, result), wrapExternal(err, codeFetchIDs, "fetch candidate ids")
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return e.finish(logger, result), wrapContext(err)
			}
			processed++
			result.Scanned++
			if err := run.process(ctx, id); err != nil {
				return e.finish(logger, result), err
			}
		}
	}
	return e.finish(logger, result), nil
}

func (e *Engine) finish(logger interfaces.Logger, result *report.RunResult) *report.RunResult {
	result.FinishedAt = e.now()
	logger.Info("engine.run.finished",
		"scanned", result.Scanned,
		"matched", result.Matched,
		"changed", result.Changed,
		"blocks_converted", result.BlocksConverted,
		"errors", len(result.Errors),
		"checkpoint", result.Checkpoint,
		"duration", result.Duration(),
	)
	return result
}

type runState struct {
	engine *Engine
	req    Request
	result *report.RunResult
	logger interfaces.Logger
	cursor int64
	// ceiling caps the persisted checkpoint below the first document that
	// could not be read, so the next run revisits it.
	ceiling int64
	held    bool
}

// process handles one candidate id. Only checkpoint persistence failures are
// returned; everything else is recorded on the result.
func (r *runState) process(ctx context.Context, id int64) error {
	e := r.engine
	ctx = logging.ContextWithFields(ctx, map[string]any{"post_id": id})
	logger := logging.WithDocument(r.logger, id)

	doc, err := e.store.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			logger.Debug("engine.document.missing")
			r.audit(ctx, id, ActionSkippedMissing, nil)
			return nil
		}
		r.result.AddError(fmt.Sprintf("Post %d: %s", id, err.Error()))
		logger.Error("engine.document.fetch_failed", "error", err)
		r.audit(ctx, id, ActionFetchFailed, map[string]any{"error": err.Error()})
		r.hold(id)
		return nil
	}

	content := doc.Content
	if !strings.Contains(content, scanner.SourceMarker) {
		r.audit(ctx, id, ActionNoMarker, nil)
		return r.advance(ctx, id)
	}

	scan := e.scanner.Scan(content, id)
	changed := scan.Content != content
	action := ActionUnchanged
	if changed {
		action = ActionPreviewed
	}
	meta := map[string]any{
		"source_blocks": scan.SourceBlocks,
		"converted":     scan.Converted,
	}

	if changed && r.req.Mode == report.ModeApply {
		if err := e.store.Write(ctx, id, scan.Content); err != nil {
			r.result.AddError(fmt.Sprintf("Post %d: %s", id, err.Error()))
			logger.Error("engine.document.write_failed", "error", err)
			changed = false
			action = ActionWriteFailed
			meta["error"] = err.Error()
		} else {
			action = ActionWritten
		}
	}

	if changed {
		r.result.Changed++
	}
	if scan.Matched() {
		r.result.Matched++
	}
	r.result.BlocksConverted += scan.Converted

	if err := r.advance(ctx, id); err != nil {
		return err
	}

	item := report.ItemResult{
		PostID:       id,
		PostTitle:    r.title(ctx, doc),
		SourceBlocks: scan.SourceBlocks,
		Converted:    scan.Converted,
		Changed:      changed,
		Note:         scan.Note,
	}
	if r.req.Mode == report.ModeDry {
		item.Preview = scan.Preview
	}
	r.result.AddItem(item)

	logger.Debug("engine.document.processed",
		"action", action,
		"source_blocks", scan.SourceBlocks,
		"converted", scan.Converted,
		"changed", changed,
		"note", scan.Note,
	)
	r.audit(ctx, id, action, meta)
	return nil
}

// hold pins the persisted checkpoint below id. Paging still moves past it.
func (r *runState) hold(id int64) {
	r.cursor = max(r.cursor, id)
	if r.held {
		return
	}
	r.held = true
	r.ceiling = max(r.result.Checkpoint, id-1)
}

// advance moves the cursor to max(cursor, id) and persists it, capped by a
// pending read failure.
func (r *runState) advance(ctx context.Context, id int64) error {
	r.cursor = max(r.cursor, id)
	checkpoint := r.cursor
	if r.held {
		checkpoint = min(checkpoint, r.ceiling)
	}
	if err := r.engine.checkpoints.Save(ctx, checkpoint); err != nil {
		r.result.AddError("Checkpoint save failed: " + err.Error())
		return wrapExternal(err, codeCheckpointSave, "save checkpoint")
	}
	r.result.Checkpoint = checkpoint
	return nil
}

func (r *runState) title(ctx context.Context, doc *interfaces.Document) string {
	title, err := r.engine.store.Title(ctx, doc.ID)
	if err != nil {
		return doc.Title
	}
	return title
}

func (r *runState) audit(ctx context.Context, id int64, action string, meta map[string]any) {
	if r.engine.recorder == nil {
		return
	}
	_ = r.engine.recorder.Record(ctx, AuditEvent{
		RunID:      r.result.RunID,
		DocumentID: id,
		Action:     action,
		OccurredAt: r.engine.now(),
		Metadata:   meta,
	})
}
