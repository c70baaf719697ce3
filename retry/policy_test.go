// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"testing"
	"time"

	"github.com/gogama/fanout/request"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	d := newTestDescriptor(t, 75*time.Millisecond)
	for i := 1; i < request.DefaultMaxAttempts; i++ {
		e := &request.Execution{Descriptor: d, Attempts: i, StatusCode: 503}
		assert.True(t, DefaultPolicy.Decide(e), "attempt %d", i)
		assert.Equal(t, 75*time.Millisecond, DefaultPolicy.Wait(e))
	}
	assert.False(t, DefaultPolicy.Decide(&request.Execution{Descriptor: d, Attempts: request.DefaultMaxAttempts}))
}

func TestNever(t *testing.T) {
	d := newTestDescriptor(t, 0)
	for i := 1; i <= 3; i++ {
		assert.False(t, Never.Decide(&request.Execution{Descriptor: d, Attempts: i}))
	}
}

func TestNewPolicy(t *testing.T) {
	var decided, waited int
	decider := DeciderFunc(func(_ *request.Execution) bool { decided++; return decided%2 == 1 })
	waiter := WaiterFunc(func(_ *request.Execution) time.Duration { waited++; return time.Duration(waited) * time.Second })

	assert.PanicsWithValue(t, "fanout/retry: nil decider", func() { NewPolicy(nil, waiter) })
	assert.PanicsWithValue(t, "fanout/retry: nil waiter", func() { NewPolicy(decider, nil) })

	p := NewPolicy(decider, waiter)
	e := &request.Execution{}
	assert.True(t, p.Decide(e))
	assert.False(t, p.Decide(e))
	assert.Equal(t, time.Second, p.Wait(e))
	assert.Equal(t, 2, decided)
	assert.Equal(t, 1, waited)
}

func TestOnly(t *testing.T) {
	d := newTestDescriptor(t, 30*time.Millisecond)
	p := Only(ServerError)
	assert.True(t, p.Decide(&request.Execution{Descriptor: d, Attempts: 1, StatusCode: 502}))
	assert.False(t, p.Decide(&request.Execution{Descriptor: d, Attempts: 1, StatusCode: 404}))
	assert.Equal(t, 30*time.Millisecond, p.Wait(&request.Execution{Descriptor: d, Attempts: 1}))
	assert.PanicsWithValue(t, "fanout/retry: nil decider", func() { Only(nil) })
}
