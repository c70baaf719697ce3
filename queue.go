// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"sort"
	"time"

	"github.com/gogama/fanout/request"
)

// byRank reports whether a dispatches before b: higher priority first,
// then lower submission index.
func byRank(a, b *request.Execution) bool {
	pa, pb := a.Descriptor.Priority(), b.Descriptor.Priority()
	if pa != pb {
		return pa > pb
	}
	return a.Index < b.Index
}

func sortByRank(execs []*request.Execution) {
	sort.SliceStable(execs, func(i, j int) bool {
		return byRank(execs[i], execs[j])
	})
}

// SortBySubmission sorts executions by ascending submission index, for
// consumers which want results in submission order rather than the
// dispatch rank order Run returns.
func SortBySubmission(execs []*request.Execution) {
	sort.SliceStable(execs, func(i, j int) bool {
		return execs[i].Index < execs[j].Index
	})
}

// pendingQueue holds executions awaiting their first dispatch, in rank
// order.
type pendingQueue struct {
	a    []*request.Execution
	head int
}

func newPendingQueue(execs []*request.Execution) pendingQueue {
	a := make([]*request.Execution, len(execs))
	copy(a, execs)
	sortByRank(a)
	return pendingQueue{a: a}
}

func (q *pendingQueue) len() int {
	return len(q.a) - q.head
}

func (q *pendingQueue) peek() *request.Execution {
	if q.head < len(q.a) {
		return q.a[q.head]
	}
	return nil
}

func (q *pendingQueue) pop() {
	q.a[q.head] = nil
	q.head++
}

func (q *pendingQueue) clear() {
	q.a = nil
	q.head = 0
}

type retryEntry struct {
	e       *request.Execution
	readyAt time.Time
}

// retryQueue holds executions awaiting a retry, in the order their
// failed attempts concluded. An entry may not be dispatched before its
// readyAt time.
type retryQueue struct {
	a []retryEntry
}

func (q *retryQueue) len() int {
	return len(q.a)
}

func (q *retryQueue) push(e *request.Execution, readyAt time.Time) {
	q.a = append(q.a, retryEntry{e: e, readyAt: readyAt})
}

// peek returns the position of the earliest queued entry which is ready
// at now, or -1 if none is.
func (q *retryQueue) peek(now time.Time) int {
	for i := range q.a {
		if !now.Before(q.a[i].readyAt) {
			return i
		}
	}
	return -1
}

func (q *retryQueue) remove(i int) *request.Execution {
	e := q.a[i].e
	copy(q.a[i:], q.a[i+1:])
	q.a[len(q.a)-1] = retryEntry{}
	q.a = q.a[:len(q.a)-1]
	return e
}

// nextReady returns the earliest readyAt still after now. It reports
// false if every queued entry is already ready or the queue is empty.
func (q *retryQueue) nextReady(now time.Time) (time.Time, bool) {
	var t time.Time
	found := false
	for i := range q.a {
		r := q.a[i].readyAt
		if r.After(now) && (!found || r.Before(t)) {
			t, found = r, true
		}
	}
	return t, found
}

func (q *retryQueue) clear() {
	q.a = nil
}
