// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/fanout/request"
)

// A Handle identifies one transfer within a Multiplexer. The zero
// Handle never identifies a transfer.
type Handle uint64

// A Spec describes one transfer attempt.
type Spec struct {
	Method string
	URL    string
	Header http.Header
	// Body is sent as the request body. It is not modified.
	Body []byte
	// Timeout bounds the whole attempt, including reading the response
	// body. Zero or negative means no timeout.
	Timeout time.Duration
}

// An EventKind says what happened to a transfer.
type EventKind int

const (
	// Progressed means more bytes were sent or received. Progress events
	// are coalesced: a transfer reports at most one per Poll.
	Progressed EventKind = iota
	// Completed means the transfer finished, successfully or not, and
	// its Result is available.
	Completed
)

func (k EventKind) String() string {
	switch k {
	case Progressed:
		return "Progressed"
	case Completed:
		return "Completed"
	default:
		return "EventKind(?)"
	}
}

// An Event is reported by Poll.
type Event struct {
	Handle Handle
	Kind   EventKind
}

// A Result is the outcome of a completed transfer.
//
// Err is non-nil if the transfer failed before a complete response was
// received, in which case Body is nil. Otherwise StatusCode and Header
// come from the response and Body holds the whole response body. The
// receiver of a Result owns its Body and must close it.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       *request.Body
	Err        error
}

// A Multiplexer runs concurrent transfers and reports their events to
// a single consumer.
//
// Begin, Progress, Result and End may be called from any goroutine.
// Poll is meant to be called by one goroutine at a time.
type Multiplexer interface {
	// Begin starts a transfer. The transfer is aborted if ctx is done
	// before it completes. An error means no transfer was started.
	Begin(ctx context.Context, spec *Spec) (Handle, error)
	// Poll waits up to timeout for events and returns all events which
	// occurred since the previous call. A timeout of zero or less does
	// not wait.
	Poll(timeout time.Duration) []Event
	// Progress returns the byte progress of a transfer.
	Progress(h Handle) request.Progress
	// Result returns the outcome of a completed transfer. It returns
	// the zero Result if the transfer has not completed.
	Result(h Handle) Result
	// End releases a transfer, aborting it if it is still running. No
	// further events are reported for h.
	End(h Handle)
}
