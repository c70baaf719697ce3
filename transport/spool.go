// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"os"

	"github.com/gogama/fanout/request"
)

// spool collects a response body in memory until it grows past the
// threshold, then moves it to a temporary file.
type spool struct {
	threshold int64
	dir       string
	buf       bytes.Buffer
	file      *os.File
	n         int64
}

func (s *spool) Write(p []byte) (int, error) {
	if s.file == nil && s.threshold >= 0 && int64(s.buf.Len()+len(p)) > s.threshold {
		f, err := os.CreateTemp(s.dir, "fanout-body-*")
		if err != nil {
			return 0, err
		}
		if _, err = f.Write(s.buf.Bytes()); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return 0, err
		}
		s.buf = bytes.Buffer{}
		s.file = f
	}
	var n int
	var err error
	if s.file != nil {
		n, err = s.file.Write(p)
	} else {
		n, err = s.buf.Write(p)
	}
	s.n += int64(n)
	return n, err
}

func (s *spool) body() (*request.Body, error) {
	if s.file == nil {
		return request.NewMemoryBody(s.buf.Bytes()), nil
	}
	return request.NewFileBody(s.file, s.n)
}

func (s *spool) discard() {
	if s.file != nil {
		_ = s.file.Close()
		_ = os.Remove(s.file.Name())
		s.file = nil
	}
	s.buf = bytes.Buffer{}
}
