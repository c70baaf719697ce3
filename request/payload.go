// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"io"
	"net/url"
)

// ErrPayloadType is the cause of the *ValidationError returned when a
// descriptor body has a type Payload does not accept.
var ErrPayloadType = errors.New("fanout/request: unsupported body type " +
	"(use nil, string, []byte, url.Values, *Body or io.Reader)")

// Payload buffers a descriptor body argument so every attempt of the
// descriptor, retries included, sends identical bytes.
//
// A string or []byte is used as is, and nil means no body. url.Values
// are form-encoded. A *Body, typically the response of an earlier
// execution, is read from its start and left open for its owner to
// close. Any other io.Reader is drained, and closed if it is also an
// io.Closer.
func Payload(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case url.Values:
		return []byte(x.Encode()), nil
	case *Body:
		return x.Bytes()
	case io.Reader:
		return drain(x)
	default:
		return nil, fmt.Errorf("%w, got %T", ErrPayloadType, body)
	}
}

func drain(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if c, ok := r.(io.Closer); ok {
		if closeErr := c.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
