package wrap

import (
	"context"
	"errors"
)

// errorWithLogCtx wraps an error together with the LogCtx it happened in
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// Error attaches the current LogCtx to err. Already wrapped errors get their
// log context refreshed instead of a second wrapping layer.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var e *errorWithLogCtx
	if errors.As(err, &e) {
		if x, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
			return &errorWithLogCtx{err: err, logCtx: mergeLogCtx(e.logCtx, x)}
		}
		return err
	}

	return &errorWithLogCtx{
		err:    err,
		logCtx: fromContext(ctx),
	}
}

// ErrorCtx extracts the LogCtx from an error if it is of type errorWithLogCtx
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return WithLogCtx(ctx, e.logCtx)
	}
	return ctx
}

// mergeLogCtx keeps the deepest (original) values and fills gaps from outer.
func mergeLogCtx(inner, outer LogCtx) LogCtx {
	if inner.Action == "" {
		inner.Action = outer.Action
	}
	if inner.UserID == "" {
		inner.UserID = outer.UserID
	}
	if inner.RequestID == "" {
		inner.RequestID = outer.RequestID
	}
	if inner.RideID == "" {
		inner.RideID = outer.RideID
	}
	if inner.SessionID == "" {
		inner.SessionID = outer.SessionID
	}
	return inner
}
