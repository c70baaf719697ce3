// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const (
	// DefaultMaxAttempts is the maximum number of attempts made for a
	// descriptor whose limit was never set with SetMaxAttempts.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the minimum wait before a failed attempt is
	// retried, for a descriptor whose delay was never set with
	// SetRetryDelay.
	DefaultRetryDelay = 50 * time.Millisecond
)

// Methods lists the HTTP methods a Descriptor may use, in no
// particular order.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
	http.MethodOptions,
}

// A Hook is a per-attempt lifecycle callback. The scheduler runs hooks
// on its own goroutine, so a hook that blocks stalls the whole run.
type Hook func(e *Execution)

// A ProgressHook receives byte-level progress of the current attempt.
type ProgressHook func(e *Execution, p Progress)

// A Sink consumes the body of a successful response. The body is
// positioned at its start when the sink is called and is rewound
// again afterward.
//
// A sink which returns a non-nil error turns the successful attempt
// into a failed one, so the attempt may be retried.
type Sink func(e *Execution, body *Body) error

// A Descriptor describes one logical HTTP request to be dispatched by a
// scheduler: its destination, method, headers and body, together with
// its retry policy, dispatch priority, and lifecycle hooks.
//
// A Descriptor is owned by the caller. Once it has been submitted to a
// scheduler it is sealed, and every setter rejects further changes with
// a *ValidationError. The request fields are only reachable through
// accessors so that a sealed descriptor really is immutable.
//
// A Descriptor is not safe for concurrent mutation.
type Descriptor struct {
	method string
	url    *urlpkg.URL
	header http.Header
	body   []byte

	priority    int
	maxAttempts int
	retryDelay  time.Duration

	onStart    Hook
	onFinish   Hook
	onProgress ProgressHook
	sink       Sink

	index   int
	indexed bool
	sealed  bool
}

// NewDescriptor returns a new Descriptor given a method, URL, and
// optional body.
//
// The method must be one of the values in Methods. An empty method
// means GET. The URL must be an absolute http or https URL with a
// host. Parameter body may be anything Payload accepts.
//
// Any invalid parameter produces a *ValidationError.
func NewDescriptor(method, url string, body interface{}) (*Descriptor, error) {
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, invalid("method", method, "not one of "+strings.Join(Methods, ", "))
	}
	u, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	b, err := Payload(body)
	if err != nil {
		return nil, &ValidationError{Field: "body", Value: fmt.Sprintf("%T", body), Reason: err.Error(), Err: err}
	}
	return &Descriptor{
		method:      method,
		url:         u,
		header:      make(http.Header),
		body:        b,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}, nil
}

// Method returns the HTTP method.
func (d *Descriptor) Method() string { return d.method }

// URL returns a copy of the destination URL.
func (d *Descriptor) URL() *urlpkg.URL {
	u := *d.url
	return &u
}

// Header returns a copy of the request headers.
func (d *Descriptor) Header() http.Header { return d.header.Clone() }

// Body returns the pre-buffered request body. The caller must not
// modify the returned slice.
func (d *Descriptor) Body() []byte { return d.body }

// Priority returns the dispatch priority. Higher priorities are
// dispatched first.
func (d *Descriptor) Priority() int { return d.priority }

// MaxAttempts returns the maximum number of attempts, including the
// initial one.
func (d *Descriptor) MaxAttempts() int { return d.maxAttempts }

// RetryDelay returns the minimum wait between a failed attempt and its
// retry.
func (d *Descriptor) RetryDelay() time.Duration { return d.retryDelay }

// Index returns the submission index and whether one has been
// assigned.
func (d *Descriptor) Index() (int, bool) { return d.index, d.indexed }

// Sealed reports whether the descriptor has been submitted and can no
// longer be changed.
func (d *Descriptor) Sealed() bool { return d.sealed }

// SetPriority sets the dispatch priority. Any integer is accepted.
func (d *Descriptor) SetPriority(priority int) error {
	if d.sealed {
		return sealedErr("priority", priority)
	}
	d.priority = priority
	return nil
}

// SetMaxAttempts sets the maximum number of attempts, which must be at
// least one.
func (d *Descriptor) SetMaxAttempts(n int) error {
	if d.sealed {
		return sealedErr("maxAttempts", n)
	}
	if n < 1 {
		return invalid("maxAttempts", n, "must be at least 1")
	}
	d.maxAttempts = n
	return nil
}

// SetRetryDelay sets the minimum wait before a failed attempt is
// retried, which may not be negative.
func (d *Descriptor) SetRetryDelay(delay time.Duration) error {
	if d.sealed {
		return sealedErr("retryDelay", delay)
	}
	if delay < 0 {
		return invalid("retryDelay", delay, "may not be negative")
	}
	d.retryDelay = delay
	return nil
}

// SetIndex pre-assigns the submission index. A scheduler keeps a
// pre-assigned index rather than assigning its own, so the caller is
// responsible for keeping indices unique within a batch.
func (d *Descriptor) SetIndex(i int) error {
	if d.sealed {
		return sealedErr("index", i)
	}
	if i < 0 {
		return invalid("index", i, "may not be negative")
	}
	d.index = i
	d.indexed = true
	return nil
}

// SetHeader sets a request header, replacing any existing values.
func (d *Descriptor) SetHeader(key, value string) error {
	if err := d.checkHeader(key, value); err != nil {
		return err
	}
	d.header.Set(key, value)
	return nil
}

// AddHeader adds a value to a request header.
func (d *Descriptor) AddHeader(key, value string) error {
	if err := d.checkHeader(key, value); err != nil {
		return err
	}
	d.header.Add(key, value)
	return nil
}

// OnStart registers a hook that runs each time an attempt is
// dispatched. Because it runs once per attempt, a descriptor that is
// retried twice sees OnStart three times.
func (d *Descriptor) OnStart(h Hook) error {
	if d.sealed {
		return sealedErr("onStart", nil)
	}
	d.onStart = h
	return nil
}

// OnFinish registers a hook that runs each time an attempt concludes,
// whether it succeeded, will be retried, or failed for good. Like
// OnStart it runs once per attempt; use a scheduler AfterExecutionEnd
// handler for once-per-descriptor accounting.
func (d *Descriptor) OnFinish(h Hook) error {
	if d.sealed {
		return sealedErr("onFinish", nil)
	}
	d.onFinish = h
	return nil
}

// OnProgress registers a hook that receives byte progress of the
// current attempt.
func (d *Descriptor) OnProgress(h ProgressHook) error {
	if d.sealed {
		return sealedErr("onProgress", nil)
	}
	d.onProgress = h
	return nil
}

// SetSink registers a sink for the body of the successful response.
func (d *Descriptor) SetSink(s Sink) error {
	if d.sealed {
		return sealedErr("sink", nil)
	}
	d.sink = s
	return nil
}

// Seal assigns i as the submission index unless one is already
// assigned, seals the descriptor against further changes, and returns
// the index in effect. Schedulers call Seal on submission.
func (d *Descriptor) Seal(i int) int {
	if !d.indexed {
		d.index = i
		d.indexed = true
	}
	d.sealed = true
	return d.index
}

// StartHook returns the hook registered with OnStart, or nil.
func (d *Descriptor) StartHook() Hook { return d.onStart }

// FinishHook returns the hook registered with OnFinish, or nil.
func (d *Descriptor) FinishHook() Hook { return d.onFinish }

// ProgressHook returns the hook registered with OnProgress, or nil.
func (d *Descriptor) ProgressHook() ProgressHook { return d.onProgress }

// Sink returns the sink registered with SetSink, or nil.
func (d *Descriptor) Sink() Sink { return d.sink }

func (d *Descriptor) checkHeader(key, value string) error {
	if d.sealed {
		return sealedErr("header", key)
	}
	if !httpguts.ValidHeaderFieldName(key) {
		return invalid("header", key, "invalid header field name")
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return invalid("header", value, "invalid header field value")
	}
	return nil
}

func validMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

func parseURL(url string) (*urlpkg.URL, error) {
	if url == "" {
		return nil, invalid("url", url, "may not be empty")
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, &ValidationError{Field: "url", Value: url, Reason: "malformed", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalid("url", url, "scheme must be http or https")
	}
	u.Host = removeEmptyPort(u.Host)
	if u.Host == "" {
		return nil, invalid("url", url, "missing host")
	}
	return u, nil
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
