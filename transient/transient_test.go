// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/http2"
)

func TestCategorize(t *testing.T) {
	refused := http2.StreamError{StreamID: 3, Code: http2.ErrCodeRefusedStream}
	cancelled := http2.StreamError{StreamID: 5, Code: http2.ErrCodeCancel}
	goAway := http2.GoAwayError{LastStreamID: 1, ErrCode: http2.ErrCodeNo}

	testCases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, Not},
		{"plain", errors.New("foo"), Not},
		{"empty wrap", chain{}, Not},
		{"EOF", io.EOF, Not},
		{"host unreachable", syscall.EHOSTUNREACH, Not},
		{"canceled", context.Canceled, Not},
		{"ETIMEDOUT", syscall.ETIMEDOUT, Timeout},
		{"url ETIMEDOUT", &url.Error{Op: "Get", URL: "x", Err: syscall.ETIMEDOUT}, Timeout},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"wrapped deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), Timeout},
		{"timed out reset", timeoutChain{true, syscall.ECONNRESET}, Timeout},
		{"reset", syscall.ECONNRESET, ConnReset},
		{"untimed reset", chain{timeoutChain{false, syscall.ECONNRESET}}, ConnReset},
		{"refused", &url.Error{Op: "Post", URL: "x", Err: chain{syscall.ECONNREFUSED}}, ConnRefused},
		{"truncated", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), Truncated},
		{"stream refused", refused, StreamRefused},
		{"stream refused pointer", &refused, StreamRefused},
		{"stream refused in url", &url.Error{Op: "Get", URL: "x", Err: refused}, StreamRefused},
		{"stream cancelled", cancelled, Not},
		{"go away", goAway, GoAway},
		{"go away pointer", chain{&goAway}, GoAway},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, Categorize(testCase.err))
			assert.Equal(t, testCase.want != Not, Transient(testCase.err))
		})
	}
}

func TestCategory_String(t *testing.T) {
	for c := Not; c <= GoAway; c++ {
		assert.NotEqual(t, "Category(?)", c.String())
	}
	assert.Equal(t, "StreamRefused", StreamRefused.String())
	assert.Equal(t, "GoAway", GoAway.String())
	assert.Equal(t, "Category(?)", Category(-1).String())
	assert.Equal(t, "Category(?)", (GoAway + 1).String())
}

type chain struct {
	cause error
}

func (c chain) Error() string {
	return fmt.Sprintf("chain(%v)", c.cause)
}

func (c chain) Unwrap() error {
	return c.cause
}

type timeoutChain struct {
	timeout bool
	cause   error
}

func (c timeoutChain) Error() string {
	return fmt.Sprintf("timeout=%t(%v)", c.timeout, c.cause)
}

func (c timeoutChain) Timeout() bool {
	return c.timeout
}

func (c timeoutChain) Unwrap() error {
	return c.cause
}
