package enrich

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of applying a fallible function to one item.
// Exactly one of Value and Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// MapIsolated applies fn to every item with at most limit calls in flight
// and returns one Result per item in input order. An error or panic from
// one item is captured in its Result and never stops the others.
func MapIsolated[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			results[i] = call(ctx, item, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func call[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[R]{Err: &PanicError{Value: p, Stack: debug.Stack()}}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result[R]{Err: eris.Wrap(err, "enrich: canceled")}
	}

	v, err := fn(ctx, item)
	return Result[R]{Value: v, Err: err}
}

// PanicError wraps a value recovered from a panicking item.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
