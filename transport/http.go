// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gogama/fanout/request"
	"golang.org/x/net/http2"
)

// HTTP is a Multiplexer which performs each transfer on its own
// goroutine using a Doer.
type HTTP struct {
	doer      Doer
	threshold int64
	tempDir   string
	userAgent string

	lock      sync.Mutex
	next      Handle
	transfers map[Handle]*transfer
	events    []Event
	notify    chan struct{}
}

type transfer struct {
	cancel   context.CancelFunc
	progress request.Progress
	dirty    bool
	done     bool
	result   Result
}

// NewHTTP constructs an HTTP multiplexer.
func NewHTTP(cfg Config) (*HTTP, error) {
	cfg = cfg.withDefaults()
	doer := cfg.Doer
	if doer == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.ForceHTTP2 {
			if _, err := http2.ConfigureTransports(t); err != nil {
				return nil, err
			}
		}
		doer = &http.Client{Transport: t}
	} else if cfg.ForceHTTP2 {
		return nil, errors.New("fanout/transport: ForceHTTP2 requires the default Doer")
	}
	return &HTTP{
		doer:      doer,
		threshold: cfg.SpoolThreshold,
		tempDir:   cfg.TempDir,
		userAgent: cfg.UserAgent,
		transfers: make(map[Handle]*transfer),
		notify:    make(chan struct{}, 1),
	}, nil
}

// Begin starts a transfer on a new goroutine.
func (m *HTTP) Begin(ctx context.Context, spec *Spec) (Handle, error) {
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	r, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, nil)
	if err != nil {
		cancel()
		return 0, err
	}
	if spec.Header != nil {
		r.Header = spec.Header.Clone()
	}
	if m.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", m.userAgent)
	}

	m.lock.Lock()
	m.next++
	h := m.next
	t := &transfer{cancel: cancel}
	t.progress.TotalUpload = int64(len(spec.Body))
	m.transfers[h] = t
	m.lock.Unlock()

	if len(spec.Body) > 0 {
		body := spec.Body
		r.ContentLength = int64(len(body))
		r.Body = io.NopCloser(&countingReader{
			r: bytes.NewReader(body),
			f: func(n int) { m.progressed(h, func(p *request.Progress) { p.BytesUploaded += int64(n) }) },
		})
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	go m.run(h, r)
	return h, nil
}

func (m *HTTP) run(h Handle, r *http.Request) {
	resp, err := m.doer.Do(r)
	if err != nil {
		m.complete(h, Result{Err: err})
		return
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		m.progressed(h, func(p *request.Progress) { p.TotalDownload = resp.ContentLength })
	}
	s := &spool{threshold: m.threshold, dir: m.tempDir}
	_, err = io.Copy(s, &countingReader{
		r: resp.Body,
		f: func(n int) { m.progressed(h, func(p *request.Progress) { p.BytesDownloaded += int64(n) }) },
	})
	if err != nil {
		s.discard()
		m.complete(h, Result{StatusCode: resp.StatusCode, Err: err})
		return
	}
	body, err := s.body()
	if err != nil {
		s.discard()
		m.complete(h, Result{StatusCode: resp.StatusCode, Err: err})
		return
	}
	m.complete(h, Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	})
}

func (m *HTTP) progressed(h Handle, f func(p *request.Progress)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	t := m.transfers[h]
	if t == nil || t.done {
		return
	}
	f(&t.progress)
	if !t.dirty {
		t.dirty = true
		m.post(Event{Handle: h, Kind: Progressed})
	}
}

func (m *HTTP) complete(h Handle, r Result) {
	m.lock.Lock()
	defer m.lock.Unlock()
	t := m.transfers[h]
	if t == nil {
		// Ended while running.
		if r.Body != nil {
			_ = r.Body.Close()
		}
		return
	}
	t.done = true
	t.result = r
	m.post(Event{Handle: h, Kind: Completed})
}

// post must be called with the lock held.
func (m *HTTP) post(evt Event) {
	m.events = append(m.events, evt)
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Poll waits up to timeout for events.
func (m *HTTP) Poll(timeout time.Duration) []Event {
	if evts := m.drain(); len(evts) > 0 || timeout <= 0 {
		return evts
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.notify:
	case <-timer.C:
	}
	return m.drain()
}

func (m *HTTP) drain() []Event {
	m.lock.Lock()
	defer m.lock.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	evts := make([]Event, 0, len(m.events))
	for _, evt := range m.events {
		t := m.transfers[evt.Handle]
		if t == nil {
			continue
		}
		if evt.Kind == Progressed {
			t.dirty = false
		}
		evts = append(evts, evt)
	}
	m.events = m.events[:0]
	return evts
}

// Progress returns the byte progress of a transfer.
func (m *HTTP) Progress(h Handle) request.Progress {
	m.lock.Lock()
	defer m.lock.Unlock()
	if t := m.transfers[h]; t != nil {
		return t.progress
	}
	return request.Progress{}
}

// Result returns the outcome of a completed transfer.
func (m *HTTP) Result(h Handle) Result {
	m.lock.Lock()
	defer m.lock.Unlock()
	if t := m.transfers[h]; t != nil && t.done {
		return t.result
	}
	return Result{}
}

// End releases a transfer. A body in an uncollected result is not
// closed: Result hands body ownership to the caller.
func (m *HTTP) End(h Handle) {
	m.lock.Lock()
	t := m.transfers[h]
	delete(m.transfers, h)
	m.lock.Unlock()
	if t != nil {
		t.cancel()
	}
}

// CloseIdleConnections closes idle connections held by the Doer, if it
// has a method to do so.
func (m *HTTP) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}
	if c, ok := m.doer.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

type countingReader struct {
	r io.Reader
	f func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.f(n)
	}
	return n, err
}
