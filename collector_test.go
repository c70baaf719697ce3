// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"context"
	"errors"
	"testing"

	"github.com/gogama/fanout/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var c collector
		results, err := c.drain(0, false, nil)
		assert.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})
	t.Run("all succeeded", func(t *testing.T) {
		a := newTestExecution(t, "a", 0, 0)
		b := newTestExecution(t, "b", 1, 1)
		var c collector
		c.succeed(a)
		c.succeed(b)

		results, err := c.drain(2, false, nil)

		assert.NoError(t, err)
		assert.Equal(t, []*request.Execution{b, a}, results)
		results, err = c.drain(2, false, nil)
		assert.NoError(t, err)
		assert.Empty(t, results, "drain resets the collector")
	})
	t.Run("failures", func(t *testing.T) {
		setup := func() (collector, *request.Execution, *request.Execution, *request.Execution) {
			ok := newTestExecution(t, "ok", 0, 0)
			ok.Body = request.NewMemoryBody([]byte("ok"))
			late := newTestExecution(t, "late", 2, 0)
			late.Attempts = 3
			late.Err = errors.New("late")
			early := newTestExecution(t, "early", 1, 0)
			early.Attempts = 1
			early.Err = errors.New("early")
			var c collector
			c.succeed(ok)
			c.fail(late)
			c.fail(early)
			return c, ok, early, late
		}
		t.Run("discard", func(t *testing.T) {
			c, ok, early, late := setup()

			results, err := c.drain(3, false, nil)

			assert.Nil(t, results)
			var aggErr *AggregateRunError
			require.True(t, errors.As(err, &aggErr))
			assert.Equal(t, 3, aggErr.Total)
			assert.Nil(t, aggErr.Results)
			require.Len(t, aggErr.Failures, 2)
			assert.Equal(t, FailureContext{
				Index:     1,
				URL:       fakeURL("early"),
				Method:    "GET",
				Attempts:  1,
				Err:       early.Err,
				Execution: early,
			}, aggErr.Failures[0])
			assert.Same(t, late, aggErr.Failures[1].Execution)
			assert.Equal(t, 3, aggErr.Failures[1].Attempts)
			_, readErr := ok.Body.Read(make([]byte, 1))
			assert.Error(t, readErr)
		})
		t.Run("partial", func(t *testing.T) {
			c, ok, _, _ := setup()

			results, err := c.drain(3, true, nil)

			assert.Equal(t, []*request.Execution{ok}, results)
			var aggErr *AggregateRunError
			require.True(t, errors.As(err, &aggErr))
			assert.Equal(t, results, aggErr.Results)
			b, readErr := ok.Body.Bytes()
			assert.NoError(t, readErr)
			assert.Equal(t, "ok", string(b))
		})
	})
	t.Run("cause without failures", func(t *testing.T) {
		var c collector
		c.succeed(newTestExecution(t, "a", 0, 0))

		results, err := c.drain(1, false, context.Canceled)

		assert.Nil(t, results)
		var aggErr *AggregateRunError
		require.True(t, errors.As(err, &aggErr))
		assert.Empty(t, aggErr.Failures)
		assert.ErrorIs(t, err, context.Canceled)
		assert.EqualError(t, err, "fanout: run aborted (context canceled), 0 of 1 requests failed")
	})
}
