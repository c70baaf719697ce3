// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBody(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b := NewMemoryBody([]byte("hello, world"))
		testBodyReadRewind(t, b, "hello, world")
		assert.False(t, b.Spooled())
	})
	t.Run("file", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "body-*")
		require.NoError(t, err)
		_, err = f.WriteString("spooled content")
		require.NoError(t, err)
		b, err := NewFileBody(f, 15)
		require.NoError(t, err)
		assert.True(t, b.Spooled())
		testBodyReadRewind(t, b, "spooled content")
		assert.NoError(t, b.Close())
		_, err = os.Stat(f.Name())
		assert.True(t, os.IsNotExist(err), "Close must remove the spool file")
	})
	t.Run("empty", func(t *testing.T) {
		b := NewMemoryBody(nil)
		assert.Equal(t, int64(0), b.Len())
		p, err := b.Bytes()
		assert.NoError(t, err)
		assert.Empty(t, p)
	})
	t.Run("closed", func(t *testing.T) {
		b := NewMemoryBody([]byte("x"))
		assert.NoError(t, b.Close())
		assert.NoError(t, b.Close())
		_, err := b.Read(make([]byte, 1))
		assert.ErrorIs(t, err, errBodyClosed)
		assert.ErrorIs(t, b.Rewind(), errBodyClosed)
		_, err = b.Bytes()
		assert.Error(t, err)
	})
}

func testBodyReadRewind(t *testing.T, b *Body, expected string) {
	assert.Equal(t, int64(len(expected)), b.Len())
	assert.False(t, b.EOF())
	p, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, expected, string(p))
	assert.True(t, b.EOF())
	require.NoError(t, b.Rewind())
	assert.False(t, b.EOF())
	p, err = b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, expected, string(p))
	assert.False(t, b.EOF(), "Bytes leaves the body rewound")
}
