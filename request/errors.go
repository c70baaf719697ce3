// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"strings"

	"github.com/gogama/fanout/transient"
)

// A ValidationError reports an invalid Descriptor parameter. It is
// returned synchronously by the call that attempted the change.
type ValidationError struct {
	// Field names the descriptor field, for example "url".
	Field string
	// Value is the rejected value.
	Value interface{}
	// Reason explains the rejection.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("fanout/request: invalid %s %v: %s", err.Field, err.Value, err.Reason)
}

// Unwrap returns the underlying cause.
func (err *ValidationError) Unwrap() error {
	return err.Err
}

func invalid(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func sealedErr(field string, value interface{}) *ValidationError {
	return invalid(field, value, "descriptor already submitted")
}

// A TransferError records why a single attempt failed: either the
// transport reported an error, or the server answered with a status
// code of 500 or above.
//
// Transfer errors are absorbed by the scheduler's retry logic and only
// surface, inside an aggregate error, once a descriptor has exhausted
// its attempts.
type TransferError struct {
	// Method and URL identify the request.
	Method string
	URL    string
	// Attempt is the one-based number of the failed attempt.
	Attempt int
	// StatusCode is the HTTP status received, or zero if the transport
	// failed before a response arrived.
	StatusCode int
	// Err is the transport error, or nil for a server error status.
	Err error
}

func (err *TransferError) Error() string {
	var b strings.Builder
	b.WriteString(op(err.Method))
	b.WriteString(` "`)
	b.WriteString(err.URL)
	b.WriteString(`"`)
	fmt.Fprintf(&b, " (attempt %d)", err.Attempt)
	if err.Err != nil {
		b.WriteString(": ")
		b.WriteString(err.Err.Error())
	} else {
		fmt.Fprintf(&b, ": server error status %d", err.StatusCode)
	}
	return b.String()
}

// Unwrap returns the transport error.
func (err *TransferError) Unwrap() error {
	return err.Err
}

// Timeout reports whether the attempt failed because it timed out.
func (err *TransferError) Timeout() bool {
	return err.Err != nil && transient.Categorize(err.Err) == transient.Timeout
}

// op mirrors the Op field net/http puts in a url.Error.
func op(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
