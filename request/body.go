// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"os"
)

var errBodyClosed = errors.New("fanout/request: read on closed body")

// A Body is a fully received response body which can be read any
// number of times. Small bodies are held in memory; large ones may be
// backed by a temporary file, which Close removes.
//
// A Body is not safe for concurrent use.
type Body struct {
	r      io.ReadSeeker
	size   int64
	file   *os.File
	eof    bool
	closed bool
}

// NewMemoryBody returns a Body reading from b.
func NewMemoryBody(b []byte) *Body {
	return &Body{r: bytes.NewReader(b), size: int64(len(b))}
}

// NewFileBody returns a Body reading size bytes from f, which is
// rewound first. Closing the Body closes f and removes it from the
// file system.
func NewFileBody(f *os.File, size int64) (*Body, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &Body{r: f, size: size, file: f}, nil
}

// Read implements io.Reader.
func (b *Body) Read(p []byte) (int, error) {
	if b.closed {
		return 0, errBodyClosed
	}
	n, err := b.r.Read(p)
	if err == io.EOF {
		b.eof = true
	}
	return n, err
}

// EOF reports whether a read has reached the end of the body.
func (b *Body) EOF() bool {
	return b.eof
}

// Rewind positions the body back at its start.
func (b *Body) Rewind() error {
	if b.closed {
		return errBodyClosed
	}
	if _, err := b.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	b.eof = false
	return nil
}

// Len returns the size of the body in bytes.
func (b *Body) Len() int64 {
	return b.size
}

// Spooled reports whether the body is backed by a temporary file.
func (b *Body) Spooled() bool {
	return b.file != nil
}

// Bytes rewinds the body and returns its whole content.
func (b *Body) Bytes() ([]byte, error) {
	if err := b.Rewind(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, b.size)
	w := bytes.NewBuffer(buf)
	_, err := io.Copy(w, b)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), b.Rewind()
}

// Close releases the body. It is safe to call Close more than once.
func (b *Body) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	if rmErr := os.Remove(b.file.Name()); err == nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	return err
}
