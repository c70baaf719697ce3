// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogama/fanout/request"
)

var (
	// ErrRunning is returned by Submit and Run while a run is in
	// progress.
	ErrRunning = errors.New("fanout: run in progress")
	// ErrNilDescriptor is returned by Submit when given a nil
	// descriptor.
	ErrNilDescriptor = errors.New("fanout: nil descriptor")
	// ErrDuplicate is returned by Submit when the descriptor was
	// already submitted for the next run.
	ErrDuplicate = errors.New("fanout: descriptor already submitted")
)

// A ConfigurationError reports an invalid Scheduler configuration.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
	Err    error
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("fanout: invalid %s %v: %s", err.Field, err.Value, err.Reason)
}

func (err *ConfigurationError) Unwrap() error {
	return err.Err
}

// A FailureContext describes one descriptor which ended a run in the
// Failed state.
type FailureContext struct {
	Index    int
	URL      string
	Method   string
	Attempts int
	// Err is the final error: the *request.TransferError of the last
	// attempt, or the context error if the run was cancelled before the
	// descriptor finished.
	Err error
	// Execution is the failed execution.
	Execution *request.Execution
}

// An AggregateRunError is returned by Scheduler.Run when at least one
// descriptor failed.
type AggregateRunError struct {
	// Failures lists the failed descriptors by ascending submission
	// index.
	Failures []FailureContext
	// Total is the number of descriptors in the run.
	Total int
	// Results holds the successful executions, in dispatch rank order,
	// when the scheduler is configured for partial results. Otherwise
	// it is nil.
	Results []*request.Execution
	// Err is the context error if the run was cancelled, otherwise nil.
	Err error
}

func (err *AggregateRunError) Error() string {
	var b strings.Builder
	b.WriteString("fanout: ")
	if err.Err != nil {
		fmt.Fprintf(&b, "run aborted (%v), ", err.Err)
	}
	fmt.Fprintf(&b, "%d of %d requests failed", len(err.Failures), err.Total)
	if len(err.Failures) > 0 {
		f := err.Failures[0]
		fmt.Fprintf(&b, "; first: [%d] %v", f.Index, f.Err)
	}
	return b.String()
}

// Unwrap returns the context error, if any, followed by the final
// error of each failure, so errors.Is and errors.As look through all of
// them.
func (err *AggregateRunError) Unwrap() []error {
	errs := make([]error, 0, len(err.Failures)+1)
	if err.Err != nil {
		errs = append(errs, err.Err)
	}
	for _, f := range err.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
