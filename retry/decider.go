// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/gogama/fanout/request"
	"github.com/gogama/fanout/transient"
)

// A Decider may veto the retry of a failed attempt. The scheduler
// consults it only when the descriptor has attempts left, so a Decider
// can never extend MaxAttempts.
//
// A Decider may be called from several runs at once.
type Decider interface {
	Decide(e *request.Execution) bool
}

// DeciderFunc adapts a plain function to the Decider interface and
// adds the combinators And, Or and Not.
type DeciderFunc func(e *request.Execution) bool

var (
	// DefaultDecider allows a retry while Attempts is below the
	// descriptor's MaxAttempts.
	DefaultDecider DeciderFunc = remaining

	// TransientErr allows a retry when no response arrived and the
	// transport error falls in a transient.Category other than Not.
	TransientErr DeciderFunc = transientErr

	// ServerError allows a retry after a status of 500 or more.
	ServerError DeciderFunc = serverError

	// TransportErr allows a retry after any failure that produced no
	// response.
	TransportErr DeciderFunc = transportErr

	// Idempotent allows a retry when the descriptor's method is
	// idempotent, or when an HTTP/2 server refused the stream and so
	// did no work whatever the method.
	Idempotent DeciderFunc = idempotent
)

// Decide calls f(e).
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And allows a retry only if f and g both do. g is skipped when f
// vetoes.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or allows a retry if f or g does. g is skipped when f allows.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Not inverts f.
func (f DeciderFunc) Not() DeciderFunc {
	return func(e *request.Execution) bool {
		return !f(e)
	}
}

// Times allows n retries, n+1 attempts in all, even if the descriptor
// would allow more.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempts <= n
	}
}

// Before allows retries until d has passed since the first attempt was
// dispatched.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode allows a retry when the failed attempt's status is one of
// codes.
func StatusCode(codes ...int) DeciderFunc {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(e *request.Execution) bool {
		_, ok := set[e.StatusCode]
		return ok
	}
}

func remaining(e *request.Execution) bool {
	return e.Descriptor != nil && e.Attempts < e.Descriptor.MaxAttempts()
}

func transientErr(e *request.Execution) bool {
	return e.StatusCode == 0 && transient.Transient(e.Err)
}

func serverError(e *request.Execution) bool {
	return e.StatusCode >= 500
}

func transportErr(e *request.Execution) bool {
	return e.StatusCode == 0 && e.Err != nil
}

func idempotent(e *request.Execution) bool {
	if transient.Categorize(e.Err) == transient.StreamRefused {
		return true
	}
	if e.Descriptor == nil {
		return false
	}
	switch e.Descriptor.Method() {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
