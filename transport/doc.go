// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the boundary between the scheduler and the
code that actually moves bytes, and provides the default net/http
implementation.

A Multiplexer runs many transfers at once. The scheduler starts a
transfer with Begin, and then repeatedly calls Poll, which blocks for at
most a given time and returns the events which occurred on any transfer
since the last call. When a transfer completes, the scheduler collects
its Result and releases it with End.

	m, err := transport.NewHTTP(transport.Config{UserAgent: "crawler/1.0"})
	...
	h, err := m.Begin(ctx, &transport.Spec{Method: "GET", URL: "https://example.com"})
	...
	for {
		for _, evt := range m.Poll(10 * time.Millisecond) {
			if evt.Handle == h && evt.Kind == transport.Completed {
				r := m.Result(h)
				m.End(h)
				...
			}
		}
	}

The HTTP multiplexer performs each transfer on its own goroutine.
Response bodies are received in full before completion is reported;
bodies larger than Config.SpoolThreshold are spooled to a temporary
file rather than held in memory.
*/
package transport
