// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Descriptor (describes one HTTP
request to dispatch) and Execution (describes the state of a Descriptor
during a scheduler run).

The first core type is Descriptor. A Descriptor carries the request
itself (method, URL, headers, and a pre-buffered body, so that retries
resend the same bytes) together with the policy governing its dispatch:
its priority, its maximum number of attempts, the minimum delay before a
retry, and optional lifecycle hooks.

	d, err := request.NewDescriptor("GET", "https://example.com", nil)
	...
	_ = d.SetPriority(10)
	_ = d.SetMaxAttempts(5)
	_ = d.OnFinish(func(e *request.Execution) {
		log.Printf("attempt %d ended in state %s", e.Attempts, e.State)
	})

Construction and every setter validate their input and report problems
as a *ValidationError. Once a Descriptor has been submitted to a
scheduler it is sealed and further changes are rejected the same way.

The second core type is Execution, which represents the state of one
Descriptor during one run: its State in the transfer state machine, the
number of attempts made, and the outcome of the most recent attempt.
Execution is both the result type of a run and the input type for hooks,
event handlers, and retry and timeout policies.

A successful response body is delivered as a *Body, which can be read,
rewound, and read again. Large bodies may be backed by a temporary file,
so close a Body when done with it.
*/
package request
