// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gogama/fanout/request"
	"github.com/gogama/fanout/transport"
)

// fakeOutcome scripts one simulated attempt.
type fakeOutcome struct {
	delay    time.Duration
	status   int
	err      error
	body     string
	progress bool
}

type fakeTransfer struct {
	spec       transport.Spec
	outcome    fakeOutcome
	doneAt     time.Time
	reported   bool
	progressed bool
}

// fakeTransport is a transport.Multiplexer which completes transfers
// after scripted delays, without touching the network. Outcomes are
// scripted per URL and attempt; the last outcome in a script repeats.
type fakeTransport struct {
	lock     sync.Mutex
	scripts  map[string][]fakeOutcome
	beginErr map[string]error
	attempts map[string]int
	next     transport.Handle
	live     map[transport.Handle]*fakeTransfer
	begun    []string
	specs    []transport.Spec
	maxLive  int
	ended    int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		scripts:  make(map[string][]fakeOutcome),
		beginErr: make(map[string]error),
		attempts: make(map[string]int),
		live:     make(map[transport.Handle]*fakeTransfer),
	}
}

func (ft *fakeTransport) script(url string, outcomes ...fakeOutcome) *fakeTransport {
	ft.scripts[url] = outcomes
	return ft
}

func (ft *fakeTransport) Begin(_ context.Context, spec *transport.Spec) (transport.Handle, error) {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	ft.attempts[spec.URL]++
	ft.begun = append(ft.begun, spec.URL)
	ft.specs = append(ft.specs, *spec)
	if err := ft.beginErr[spec.URL]; err != nil {
		return 0, err
	}

	outcomes := ft.scripts[spec.URL]
	o := fakeOutcome{status: 200}
	if len(outcomes) > 0 {
		n := ft.attempts[spec.URL] - 1
		if n >= len(outcomes) {
			n = len(outcomes) - 1
		}
		o = outcomes[n]
	}

	ft.next++
	ft.live[ft.next] = &fakeTransfer{
		spec:    *spec,
		outcome: o,
		doneAt:  time.Now().Add(o.delay),
	}
	if len(ft.live) > ft.maxLive {
		ft.maxLive = len(ft.live)
	}
	return ft.next, nil
}

func (ft *fakeTransport) Poll(timeout time.Duration) []transport.Event {
	deadline := time.Now().Add(timeout)
	for {
		evts, wake := ft.due()
		now := time.Now()
		if len(evts) > 0 || !now.Before(deadline) {
			return evts
		}
		if wake.IsZero() || wake.After(deadline) {
			wake = deadline
		}
		time.Sleep(wake.Sub(now))
	}
}

func (ft *fakeTransport) due() ([]transport.Event, time.Time) {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	now := time.Now()
	var evts []transport.Event
	var wake time.Time
	for h, t := range ft.live {
		if t.reported {
			continue
		}
		if !now.Before(t.doneAt) {
			t.reported = true
			evts = append(evts, transport.Event{Handle: h, Kind: transport.Completed})
		} else {
			if t.outcome.progress && !t.progressed {
				t.progressed = true
				evts = append(evts, transport.Event{Handle: h, Kind: transport.Progressed})
			}
			if wake.IsZero() || t.doneAt.Before(wake) {
				wake = t.doneAt
			}
		}
	}
	sort.Slice(evts, func(i, j int) bool {
		if evts[i].Kind != evts[j].Kind {
			return evts[i].Kind == transport.Progressed
		}
		return evts[i].Handle < evts[j].Handle
	})
	return evts, wake
}

func (ft *fakeTransport) Progress(h transport.Handle) request.Progress {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	t := ft.live[h]
	if t == nil {
		return request.Progress{}
	}
	n := int64(len(t.outcome.body))
	p := request.Progress{
		TotalDownload: n,
		TotalUpload:   int64(len(t.spec.Body)),
		BytesUploaded: int64(len(t.spec.Body)),
	}
	if t.reported {
		p.BytesDownloaded = n
	} else {
		p.BytesDownloaded = n / 2
	}
	return p
}

func (ft *fakeTransport) Result(h transport.Handle) transport.Result {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	t := ft.live[h]
	if t == nil || !t.reported {
		return transport.Result{}
	}
	if t.outcome.err != nil {
		return transport.Result{Err: t.outcome.err}
	}
	return transport.Result{
		StatusCode: t.outcome.status,
		Body:       request.NewMemoryBody([]byte(t.outcome.body)),
	}
}

func (ft *fakeTransport) End(h transport.Handle) {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	if _, ok := ft.live[h]; ok {
		delete(ft.live, h)
		ft.ended++
	}
}

func (ft *fakeTransport) dispatched() []string {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return append([]string(nil), ft.begun...)
}

func (ft *fakeTransport) liveCount() int {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return len(ft.live)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
