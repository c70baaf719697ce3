// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"fmt"
	"testing"

	"github.com/gogama/fanout/request"

	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var log []string
	record := func(tag string) Handler {
		return HandlerFunc(func(evt Event, e *request.Execution) {
			log = append(log, fmt.Sprintf("%s.%s.%d", tag, evt, e.Attempts))
		})
	}

	var g HandlerGroup
	assert.PanicsWithValue(t, "fanout: nil handler", func() { g.PushBack(BeforeAttempt, nil) })
	assert.PanicsWithValue(t, "fanout: invalid event 99", func() { g.PushBack(Event(99), record("x")) })
	assert.PanicsWithValue(t, "fanout: invalid event -1", func() { g.PushBack(Event(-1), record("x")) })

	g.PushBack(BeforeAttempt, record("a"))
	g.PushBack(BeforeAttempt, record("b"))
	g.PushBack(AfterExecutionEnd, record("a"))
	assert.Equal(t, 2, g.Len(BeforeAttempt))
	assert.Equal(t, 1, g.Len(AfterExecutionEnd))
	assert.Equal(t, 0, g.Len(AttemptProgress))
	assert.Equal(t, 0, g.Len(Event(42)))

	g.fire(AttemptProgress, &request.Execution{Attempts: 1})
	assert.Empty(t, log)

	g.fire(BeforeAttempt, &request.Execution{Attempts: 1})
	g.fire(AfterExecutionEnd, &request.Execution{Attempts: 2})
	g.fire(BeforeAttempt, &request.Execution{Attempts: 3})
	assert.Equal(t, []string{
		"a.BeforeAttempt.1",
		"b.BeforeAttempt.1",
		"a.AfterExecutionEnd.2",
		"a.BeforeAttempt.3",
		"b.BeforeAttempt.3",
	}, log)
}

func TestHandlerGroup_Nil(t *testing.T) {
	var g *HandlerGroup
	assert.NotPanics(t, func() { g.fire(AfterAttempt, &request.Execution{}) })
	assert.Equal(t, 0, g.Len(AfterAttempt))
}

func TestHandlerFunc(t *testing.T) {
	var gotEvt Event
	var gotExec *request.Execution
	h := HandlerFunc(func(evt Event, e *request.Execution) {
		gotEvt, gotExec = evt, e
	})
	e := &request.Execution{}
	h.Handle(AfterAttemptTimeout, e)
	assert.Equal(t, AfterAttemptTimeout, gotEvt)
	assert.Same(t, e, gotExec)
}
