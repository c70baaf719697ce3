// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gogama/fanout/request"
	"github.com/gogama/fanout/retry"
	"github.com/gogama/fanout/timeout"
	"github.com/gogama/fanout/transport"
)

// A Client runs one request at a time to completion, with the same
// retry, timeout and event handling as a Scheduler. Its zero value is
// a valid configuration.
//
// The zero value client uses http.DefaultClient (from net/http) as the
// HTTPDoer, timeout.DefaultPolicy as the timeout policy,
// retry.DefaultPolicy as the retry policy, and no event handlers.
//
// Each call runs a dedicated single-slot Scheduler over a transport
// backed by the client's HTTPDoer, so Client is safe for concurrent use
// by multiple goroutines and connections are reused across calls.
//
// Client's HTTP methods should feel familiar to anyone who has used the
// Go standard HTTP client (http.Client). The main differences are:
//
// • instead of consuming an http.Request, which is only suitable for
// making a one-off request attempt, Client.Do consumes a
// request.Descriptor which carries its own retry budget; and
//
// • instead of producing an http.Response, all of Client's HTTP methods
// return a request.Execution, which contains some metadata about the
// attempts made as well as a fully-received response body.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer transport.Doer
	// RetryPolicy may veto or lengthen retries the descriptor allows.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives structured logs of each request.
	//
	// If Logger is nil, nothing is logged.
	Logger *slog.Logger
}

// Do runs a request descriptor to completion and returns the final
// execution, following the retry policy set on the descriptor and the
// Client.
//
// An error is returned if the final attempt failed, either because the
// transport reported an error or because the server answered with a
// status code of 500 or above. The error is then the attempt's
// *request.TransferError, and the returned Execution holds the same
// error in its Err field. A 4XX status code is not an error.
//
// If the returned error is nil, the returned Execution has a non-nil
// Body, which the caller should close.
//
// For simple use cases, the Get, Head, Post, and PostForm methods may
// prove easier to use than Do.
func (c *Client) Do(d *request.Descriptor) (*request.Execution, error) {
	return c.DoContext(context.Background(), d)
}

// DoContext is like Do, but abandons the request if ctx is done first.
// In that case the returned error wraps the context error.
func (c *Client) DoContext(ctx context.Context, d *request.Descriptor) (*request.Execution, error) {
	m, err := transport.NewHTTP(transport.Config{Doer: c.doer()})
	if err != nil {
		return nil, err
	}
	s, err := NewScheduler(Config{
		Concurrency:   1,
		Transport:     m,
		RetryPolicy:   c.RetryPolicy,
		TimeoutPolicy: c.TimeoutPolicy,
		Handlers:      c.Handlers,
		Logger:        c.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err = s.Submit(d); err != nil {
		return nil, err
	}

	results, err := s.Run(ctx)
	var aggErr *AggregateRunError
	if errors.As(err, &aggErr) && len(aggErr.Failures) > 0 {
		f := aggErr.Failures[0]
		return f.Execution, f.Err
	} else if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Get runs a GET of url with the client's policies.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head runs a HEAD of url with the client's policies.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post runs a POST of body to url with the client's policies. See
// request.Payload for the accepted body types.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm posts data, form-encoded, to url with the client's
// policies.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() transport.Doer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}
