// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gogama/fanout/request"
)

// A Doer runs one descriptor to completion, retrying as the
// descriptor's attempt limit and the Doer's retry policy allow, and
// returns the final execution. Client is the reference Doer.
type Doer interface {
	Do(d *request.Descriptor) (*request.Execution, error)
}

// A ContextDoer is a Doer whose runs can be abandoned by cancelling a
// context.
type ContextDoer interface {
	Doer
	DoContext(ctx context.Context, d *request.Descriptor) (*request.Execution, error)
}

// An IdleCloser can drop keep-alive connections that no attempt is
// using. Implementations that pool nothing may do nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// An Executor offers every single-descriptor shortcut Client offers.
// Inflate turns any Doer into one.
type Executor interface {
	ContextDoer
	IdleCloser
	Get(url string) (*request.Execution, error)
	Head(url string) (*request.Execution, error)
	Post(url, contentType string, body interface{}) (*request.Execution, error)
	PostForm(url string, data url.Values) (*request.Execution, error)
}

const formContentType = "application/x-www-form-urlencoded"

// Get runs a GET descriptor for url through d.
func Get(d Doer, url string) (*request.Execution, error) {
	return shortcut(d, http.MethodGet, url, "", nil)
}

// Head runs a HEAD descriptor for url through d.
func Head(d Doer, url string) (*request.Execution, error) {
	return shortcut(d, http.MethodHead, url, "", nil)
}

// Post runs a POST descriptor for url through d. The body may be any
// value request.Payload accepts, and contentType becomes the
// Content-Type header.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return shortcut(d, http.MethodPost, url, contentType, body)
}

// PostForm runs a POST descriptor for url through d, with data
// form-encoded as the body.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return shortcut(d, http.MethodPost, url, formContentType, data)
}

// shortcut builds a descriptor without hooks or custom headers, which
// is all the shortcut functions need. Callers wanting more use
// request.NewDescriptor and Do.
func shortcut(d Doer, method, url, contentType string, body interface{}) (*request.Execution, error) {
	desc, err := request.NewDescriptor(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		if err = desc.SetHeader("Content-Type", contentType); err != nil {
			return nil, err
		}
	}
	return d.Do(desc)
}

// Inflate returns d as an Executor, wrapping it only if it is not one
// already. A wrapped Doer that cannot take a context gets a best
// effort DoContext which refuses to start after ctx is done but cannot
// interrupt a run in progress. Inflate panics if d is nil.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("fanout: nil doer")
	}
	if x, ok := d.(Executor); ok {
		return x
	}
	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(d *request.Descriptor) (*request.Execution, error) {
	return i.doer.Do(d)
}

func (i inflated) DoContext(ctx context.Context, d *request.Descriptor) (*request.Execution, error) {
	if cd, ok := i.doer.(ContextDoer); ok {
		return cd.DoContext(ctx, d)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return i.doer.Do(d)
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
