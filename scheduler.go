// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gogama/fanout/request"
	"github.com/gogama/fanout/transport"
	"github.com/google/uuid"
)

// A Scheduler dispatches batches of HTTP requests concurrently.
//
// Submit descriptors, then call Run, which dispatches them in rank
// order (higher priority first, then lower submission index) while
// keeping at most Config.Concurrency attempts in flight, retries failed
// attempts, and blocks until every descriptor has either succeeded or
// exhausted its attempts.
//
// An attempt fails if the transport reports an error or the server
// answers with a status code of 500 or above. Any other response is a
// success, including 4XX responses. A failed attempt is retried after
// the descriptor's RetryDelay if the descriptor has attempts left and
// the retry policy agrees. Retries take precedence over descriptors
// which have not yet been dispatched, but a retry which is still
// waiting out its delay does not hold up other dispatches.
//
// The submitted batch is consumed by Run: after Run returns, the
// scheduler is empty and a new batch may be submitted. A Scheduler can
// be reused for any number of runs, but only runs one at a time.
//
// Hooks and event handlers all run on the goroutine which called Run.
// Progress may be called from any goroutine.
type Scheduler struct {
	cfg Config

	lock      sync.Mutex
	running   bool
	batch     []*request.Descriptor
	inBatch   map[*request.Descriptor]struct{}
	nextIndex int
	current   *run
}

// NewScheduler constructs a Scheduler. It returns a *ConfigurationError
// if cfg is invalid.
func NewScheduler(cfg Config) (*Scheduler, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:     cfg,
		inBatch: make(map[*request.Descriptor]struct{}),
	}, nil
}

// Submit adds a descriptor to the batch for the next run.
//
// Submit assigns the descriptor its submission index, unless the
// caller already set one with SetIndex, and seals it against further
// changes. The submission index breaks ties between descriptors of
// equal priority.
//
// Submit fails if d is nil, if d is already in the batch, or if a run
// is in progress.
func (s *Scheduler) Submit(d *request.Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.running {
		return ErrRunning
	}
	if _, ok := s.inBatch[d]; ok {
		return ErrDuplicate
	}
	i := d.Seal(s.nextIndex)
	if i >= s.nextIndex {
		s.nextIndex = i + 1
	}
	s.inBatch[d] = struct{}{}
	s.batch = append(s.batch, d)
	return nil
}

// Run dispatches the submitted batch and blocks until every descriptor
// reaches a terminal state.
//
// If every descriptor succeeded, Run returns their executions ordered
// by dispatch rank, which is not necessarily completion order or
// submission order (see SortBySubmission). The caller owns the
// returned executions and should close their bodies.
//
// If any descriptor failed, Run returns an *AggregateRunError. Unless
// Config.PartialResults is set, the successful executions are then
// discarded and their bodies closed.
//
// If ctx is done before the run ends, Run stops dispatching, abandons
// every in-flight attempt, fails every unfinished descriptor, and
// returns an *AggregateRunError whose Err is the context error.
func (s *Scheduler) Run(ctx context.Context) ([]*request.Execution, error) {
	s.lock.Lock()
	if s.running {
		s.lock.Unlock()
		return nil, ErrRunning
	}
	s.running = true
	r := s.newRun(ctx, s.batch)
	s.current = r
	s.batch = nil
	s.inBatch = make(map[*request.Descriptor]struct{})
	s.nextIndex = 0
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		s.current = nil
		s.running = false
		s.lock.Unlock()
	}()

	return r.loop()
}

// Progress returns a snapshot of the current run. Between runs it
// returns the zero Progress.
func (s *Scheduler) Progress() Progress {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current == nil {
		return Progress{}
	}
	return snapshot(s.current.execs)
}

// run is the state of one call to Run. Its queues are touched only by
// the goroutine running the loop. Execution fields are written under
// the scheduler lock so that Progress can read them.
type run struct {
	s      *Scheduler
	ctx    context.Context
	id     string
	logger *slog.Logger

	execs     []*request.Execution
	pending   pendingQueue
	retries   retryQueue
	active    map[transport.Handle]*request.Execution
	inFlight  int
	collector collector
}

func (s *Scheduler) newRun(ctx context.Context, batch []*request.Descriptor) *run {
	execs := make([]*request.Execution, len(batch))
	for i, d := range batch {
		index, _ := d.Index()
		execs[i] = &request.Execution{
			Descriptor: d,
			Index:      index,
			State:      request.Pending,
		}
	}
	SortBySubmission(execs)
	r := &run{
		s:       s,
		ctx:     ctx,
		id:      uuid.NewString(),
		execs:   execs,
		pending: newPendingQueue(execs),
		active:  make(map[transport.Handle]*request.Execution),
	}
	if s.cfg.Logger != nil {
		r.logger = s.cfg.Logger.With(slog.String("run_id", r.id))
	}
	return r
}

func (r *run) loop() ([]*request.Execution, error) {
	start := time.Now()
	if r.logger != nil {
		r.logger.InfoContext(r.ctx, "run starting",
			slog.Int("descriptors", len(r.execs)),
			slog.Int("concurrency", r.s.cfg.Concurrency))
	}

	var cause error
	for r.busy() {
		if err := r.ctx.Err(); err != nil {
			cause = err
			r.abort(err)
			break
		}
		r.admit()
		if r.busy() {
			r.poll()
		}
	}

	results, err := r.collector.drain(len(r.execs), r.s.cfg.PartialResults, cause)
	if r.logger != nil {
		attrs := []any{
			slog.Duration("elapsed", time.Since(start)),
			slog.Int("descriptors", len(r.execs)),
		}
		if err != nil {
			r.logger.ErrorContext(r.ctx, "run failed", append(attrs, slog.Any("error", err))...)
		} else {
			r.logger.InfoContext(r.ctx, "run finished", attrs...)
		}
	}
	return results, err
}

func (r *run) busy() bool {
	return r.pending.len() > 0 || r.retries.len() > 0 || r.inFlight > 0
}

// admit dispatches attempts until the concurrency limit is reached,
// nothing is ready, or the gate refuses.
func (r *run) admit() {
	for r.inFlight < r.s.cfg.Concurrency {
		now := time.Now()
		var e *request.Execution
		i := r.retries.peek(now)
		if i >= 0 {
			e = r.retries.a[i].e
		} else if e = r.pending.peek(); e == nil {
			return
		}
		if !r.s.cfg.Gate.Admit(e) {
			return
		}
		if i >= 0 {
			r.retries.remove(i)
		} else {
			r.pending.pop()
		}
		r.dispatch(e)
	}
}

func (r *run) dispatch(e *request.Execution) {
	d := e.Descriptor
	handlers := r.s.cfg.Handlers
	timeout := r.s.cfg.TimeoutPolicy.Timeout(e)
	now := time.Now()

	if !e.Started() {
		r.s.lock.Lock()
		e.Start = now
		r.s.lock.Unlock()
		handlers.fire(BeforeExecutionStart, e)
	}

	r.s.lock.Lock()
	e.State = request.Active
	e.Attempts++
	e.AttemptStart = now
	e.StatusCode = 0
	e.Header = nil
	e.Body = nil
	e.Err = nil
	e.Transfer = request.Progress{}
	r.inFlight++
	r.s.lock.Unlock()

	h, err := r.s.cfg.Transport.Begin(r.ctx, &transport.Spec{
		Method:  d.Method(),
		URL:     d.URL().String(),
		Header:  d.Header(),
		Body:    d.Body(),
		Timeout: timeout,
	})
	if err == nil {
		r.active[h] = e
	}
	if r.logger != nil {
		r.logger.DebugContext(r.ctx, "attempt dispatched",
			slog.Int("index", e.Index),
			slog.String("method", d.Method()),
			slog.String("url", d.URL().String()),
			slog.Int("attempt", e.Attempts),
			slog.Duration("timeout", timeout))
	}

	handlers.fire(BeforeAttempt, e)
	if hook := d.StartHook(); hook != nil {
		hook(e)
	}

	if err != nil {
		r.finish(e, transport.Result{Err: err})
	}
}

// poll waits for transport events and processes them.
func (r *run) poll() {
	// A ready retry left in the queue could not be admitted, so only
	// waits still in the future may shorten the poll.
	wait := r.s.cfg.PollInterval
	now := time.Now()
	if next, ok := r.retries.nextReady(now); ok {
		if until := next.Sub(now); until < wait {
			wait = until
		}
	}

	m := r.s.cfg.Transport
	for _, evt := range m.Poll(wait) {
		e := r.active[evt.Handle]
		if e == nil {
			continue
		}
		switch evt.Kind {
		case transport.Progressed:
			p := m.Progress(evt.Handle)
			r.s.lock.Lock()
			e.Transfer = p
			r.s.lock.Unlock()
			r.s.cfg.Handlers.fire(AttemptProgress, e)
			if hook := e.Descriptor.ProgressHook(); hook != nil {
				hook(e, p)
			}
		case transport.Completed:
			res := m.Result(evt.Handle)
			p := m.Progress(evt.Handle)
			delete(r.active, evt.Handle)
			m.End(evt.Handle)
			r.s.lock.Lock()
			e.Transfer = p
			r.s.lock.Unlock()
			r.finish(e, res)
		}
	}
}

// finish concludes an attempt and moves the execution to Completed,
// Retrying or Failed.
func (r *run) finish(e *request.Execution, res transport.Result) {
	d := e.Descriptor
	handlers := r.s.cfg.Handlers

	r.s.lock.Lock()
	e.StatusCode = res.StatusCode
	e.Header = res.Header
	e.Body = res.Body
	r.s.lock.Unlock()

	cause := res.Err
	failed := cause != nil || res.StatusCode >= 500
	if !failed {
		if sink := d.Sink(); sink != nil {
			err := sink(e, res.Body)
			if err == nil && res.Body != nil {
				err = res.Body.Rewind()
			}
			if err != nil {
				cause = err
				failed = true
			}
		}
	}

	var retryAt time.Time
	var transferErr *request.TransferError
	if failed {
		transferErr = &request.TransferError{
			Method:     d.Method(),
			URL:        d.URL().String(),
			Attempt:    e.Attempts,
			StatusCode: res.StatusCode,
			Err:        cause,
		}
		if res.Body != nil {
			_ = res.Body.Close()
		}
		r.s.lock.Lock()
		e.Body = nil
		e.Err = transferErr
		if transferErr.Timeout() {
			e.AttemptTimeouts++
		}
		r.s.lock.Unlock()
		if e.Attempts < d.MaxAttempts() && r.s.cfg.RetryPolicy.Decide(e) {
			wait := d.RetryDelay()
			if w := r.s.cfg.RetryPolicy.Wait(e); w > wait {
				wait = w
			}
			retryAt = time.Now().Add(wait)
		}
	}

	now := time.Now()
	r.s.lock.Lock()
	r.inFlight--
	switch {
	case !failed:
		e.State = request.Completed
		e.End = now
	case !retryAt.IsZero():
		e.State = request.Retrying
	default:
		e.State = request.Failed
		e.End = now
	}
	r.s.lock.Unlock()

	switch e.State {
	case request.Completed:
		r.collector.succeed(e)
	case request.Retrying:
		r.retries.push(e, retryAt)
	case request.Failed:
		r.collector.fail(e)
	}
	r.logFinish(e, retryAt)

	if transferErr != nil && transferErr.Timeout() {
		handlers.fire(AfterAttemptTimeout, e)
	}
	handlers.fire(AfterAttempt, e)
	if hook := d.FinishHook(); hook != nil {
		hook(e)
	}
	if e.State.Terminal() {
		handlers.fire(AfterExecutionEnd, e)
	}
}

func (r *run) logFinish(e *request.Execution, retryAt time.Time) {
	if r.logger == nil {
		return
	}
	attrs := []any{
		slog.Int("index", e.Index),
		slog.String("method", e.Descriptor.Method()),
		slog.String("url", e.Descriptor.URL().String()),
		slog.Int("attempt", e.Attempts),
		slog.Int("status", e.StatusCode),
	}
	switch e.State {
	case request.Completed:
		r.logger.DebugContext(r.ctx, "attempt succeeded", attrs...)
	case request.Retrying:
		r.logger.WarnContext(r.ctx, "attempt failed, retrying",
			append(attrs, slog.Any("error", e.Err), slog.Duration("delay", time.Until(retryAt)))...)
	case request.Failed:
		r.logger.ErrorContext(r.ctx, "attempts exhausted",
			append(attrs, slog.Any("error", e.Err))...)
	}
}

// abort ends every in-flight attempt and fails every unfinished
// execution with cause.
func (r *run) abort(cause error) {
	m := r.s.cfg.Transport
	handlers := r.s.cfg.Handlers

	interrupted := make([]*request.Execution, 0, len(r.active))
	for h, e := range r.active {
		m.End(h)
		interrupted = append(interrupted, e)
	}
	SortBySubmission(interrupted)
	r.active = make(map[transport.Handle]*request.Execution)
	r.pending.clear()
	r.retries.clear()

	now := time.Now()
	var aborted []*request.Execution
	r.s.lock.Lock()
	for _, e := range r.execs {
		if e.State.Terminal() {
			continue
		}
		if e.State == request.Active {
			e.Err = &request.TransferError{
				Method:  e.Descriptor.Method(),
				URL:     e.Descriptor.URL().String(),
				Attempt: e.Attempts,
				Err:     cause,
			}
		} else {
			e.Err = cause
		}
		e.State = request.Failed
		e.End = now
		aborted = append(aborted, e)
	}
	r.inFlight = 0
	r.s.lock.Unlock()

	if r.logger != nil {
		r.logger.WarnContext(r.ctx, "run aborted",
			slog.Any("error", cause),
			slog.Int("interrupted", len(interrupted)),
			slog.Int("unfinished", len(aborted)))
	}

	for _, e := range interrupted {
		handlers.fire(AfterAttempt, e)
		if hook := e.Descriptor.FinishHook(); hook != nil {
			hook(e)
		}
	}
	for _, e := range aborted {
		r.collector.fail(e)
		handlers.fire(AfterExecutionEnd, e)
	}
}
