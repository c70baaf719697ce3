// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"github.com/gogama/fanout/request"
)

// collector accumulates the executions of one run as they reach a
// terminal state, and renders the outcome of the run.
type collector struct {
	succeeded []*request.Execution
	failed    []*request.Execution
}

func (c *collector) succeed(e *request.Execution) {
	c.succeeded = append(c.succeeded, e)
}

func (c *collector) fail(e *request.Execution) {
	c.failed = append(c.failed, e)
}

// drain renders the outcome. If nothing failed, it returns the
// successes in dispatch rank order. Otherwise it returns an
// *AggregateRunError listing the failures by submission index, and
// either returns the successes too (partial) or closes their bodies and
// drops them.
func (c *collector) drain(total int, partial bool, cause error) ([]*request.Execution, error) {
	succeeded := c.succeeded
	failed := c.failed
	c.succeeded, c.failed = nil, nil

	sortByRank(succeeded)
	if len(failed) == 0 && cause == nil {
		if succeeded == nil {
			succeeded = []*request.Execution{}
		}
		return succeeded, nil
	}

	SortBySubmission(failed)
	failures := make([]FailureContext, len(failed))
	for i, e := range failed {
		failures[i] = FailureContext{
			Index:     e.Index,
			URL:       e.Descriptor.URL().String(),
			Method:    e.Descriptor.Method(),
			Attempts:  e.Attempts,
			Err:       e.Err,
			Execution: e,
		}
	}

	err := &AggregateRunError{
		Failures: failures,
		Total:    total,
		Err:      cause,
	}
	if !partial {
		for _, e := range succeeded {
			if e.Body != nil {
				_ = e.Body.Close()
			}
		}
		return nil, err
	}
	err.Results = succeeded
	return succeeded, err
}
