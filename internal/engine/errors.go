package engine

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeInvalidRequest = "FAQ_RUN_INVALID_REQUEST"
	codeCheckpointLoad = "FAQ_CHECKPOINT_LOAD_FAILED"
	codeCheckpointSave = "FAQ_CHECKPOINT_SAVE_FAILED"
	codeFetchIDs       = "FAQ_FETCH_IDS_FAILED"
	codeLockFailed     = "FAQ_RUN_LOCK_FAILED"
	codeRunCanceled    = "FAQ_RUN_CANCELED"
	codeRunTimeout     = "FAQ_RUN_TIMEOUT"
	codeMisconfigured  = "FAQ_ENGINE_MISCONFIGURED"
)

// ErrInvalidMode reports a request whose mode is neither dry nor apply.
var ErrInvalidMode = errors.New("engine: mode must be dry or apply")

func wrapValidation(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid migration request").
		WithTextCode(codeInvalidRequest)
}

func wrapExternal(err error, code, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).WithTextCode(code)
}

func wrapContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "migration run deadline exceeded").
			WithTextCode(codeRunTimeout)
	}
	return goerrors.Wrap(err, goerrors.CategoryOperation, "migration run cancelled").
		WithTextCode(codeRunCanceled)
}
