package models

import "errors"

// Result holds either a value or the error that prevented producing it.
// Batches and row parsers return one Result per input slot.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Err wraps an error.
func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Failed reports whether the slot holds an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Values returns every value in order, or the first error found.
// This is the all-or-nothing policy.
func Values[T any](results []Result[T]) ([]T, error) {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		out = append(out, r.Value)
	}
	return out, nil
}

// Partition splits results into the successful values and a joined error
// of the failures (nil when none failed).
func Partition[T any](results []Result[T]) ([]T, error) {
	out := make([]T, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		out = append(out, r.Value)
	}
	return out, errors.Join(errs...)
}
