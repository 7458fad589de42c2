// Package api is the boundary between the directory core and a GUI
// process. Every operation returns a Result envelope; expected failures and
// recovered panics alike become {success: false, ...} rather than escaping.
package api

import (
	"fmt"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/logger"
)

// Result is the envelope every Service method returns.
type Result[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data,omitzero"`

	// The fields below are set only when Success is false.
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Title     string `json:"title,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Empty is the payload of operations that return nothing.
type Empty struct{}

// OK wraps v in a successful envelope.
func OK[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: v}
}

// Fail classifies err into a failed envelope.
func Fail[T any](err error) Result[T] {
	c := errs.Classify(err)
	return Result[T]{
		Error:     c.Message,
		Code:      c.Code,
		Title:     c.Title,
		Hint:      c.Hint,
		Retryable: c.Retryable,
	}
}

// FailWith classifies err but keeps data, for batches that stopped early.
func FailWith[T any](v T, err error) Result[T] {
	r := Fail[T](err)
	r.Data = v
	return r
}

// call runs fn, converting errors and panics into failed envelopes.
func call[T any](log *logger.Logger, op string, fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected failure in %s: %v", op, r)
			log.ErrorWith("recovered panic", err, map[string]interface{}{"op": op})
			res = Fail[T](err)
		}
	}()

	v, err := fn()
	if err != nil {
		if errs.IsAborted(err) {
			log.InfoWith("operation aborted", map[string]interface{}{"op": op})
		} else {
			log.WarnWith("operation failed", err, map[string]interface{}{"op": op})
		}
		return Fail[T](err)
	}
	return OK(v)
}
