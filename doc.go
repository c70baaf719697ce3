// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fanout dispatches many HTTP requests concurrently under a
parallelism ceiling, honoring per-request priority, retrying failed
attempts, and reporting progress, behind a single blocking call.

Describe each request with a request.Descriptor, submit the
descriptors to a Scheduler, and Run it:

	s, err := fanout.NewScheduler(fanout.DefaultConfig())
	...
	for _, u := range urls {
		d, err := request.NewDescriptor("GET", u, nil)
		...
		_ = d.SetPriority(priorityOf(u))
		_ = s.Submit(d)
	}
	results, err := s.Run(ctx)

Run returns once every descriptor has succeeded or exhausted its
attempts. The results are ordered by dispatch rank: descending priority,
then ascending submission index. If any descriptor failed, Run returns a
*fanout.AggregateRunError listing the failures by submission index.

An attempt fails when the transport reports an error or the server
answers with a status of 500 or above, and is retried after the
descriptor's retry delay until its attempts run out. Retried attempts
are dispatched ahead of descriptors which have not started yet.

To observe progress from another goroutine, call Scheduler.Progress.
To observe individual attempts, register hooks on the descriptor, or
install event handlers, which see every descriptor:

	handlers := &fanout.HandlerGroup{}
	handlers.PushBack(fanout.AfterAttempt, fanout.HandlerFunc(
		func(_ fanout.Event, e *request.Execution) {
			log.Printf("[%d] attempt %d: %s", e.Index, e.Attempts, e.State)
		}),
	)
	cfg := fanout.DefaultConfig()
	cfg.Handlers = handlers

Hooks and handlers fire per attempt, so a descriptor which is retried
twice fires its OnStart and OnFinish hooks three times. Use the
AfterExecutionEnd event for once-per-descriptor accounting.

Dispatch can be paced beyond the concurrency limit with a gate from
package admission, and the default transport, which performs requests
with net/http, can be configured or replaced through package transport.

For one-off requests, Client offers the familiar Get, Head, Post and
PostForm methods on top of a single-slot Scheduler. Code that only
needs to run descriptors can depend on the Doer or ContextDoer
interfaces instead, and Inflate upgrades any Doer to the full Executor
surface.
*/
package fanout
