// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import "net/http"

// DefaultSpoolThreshold is the response body size above which the HTTP
// multiplexer spools the body to a temporary file.
const DefaultSpoolThreshold = 2 << 20

// A Doer executes HTTP requests. *http.Client is a Doer.
type Doer interface {
	Do(r *http.Request) (*http.Response, error)
}

// Config configures the HTTP multiplexer. The zero value is a valid
// configuration.
type Config struct {
	// Doer sends requests. If nil, an *http.Client using a clone of
	// http.DefaultTransport is used.
	Doer Doer

	// ForceHTTP2 enables HTTP/2 on the default Doer's transport even
	// when the transport would not otherwise negotiate it. It may not
	// be combined with a custom Doer.
	ForceHTTP2 bool

	// SpoolThreshold is the body size, in bytes, above which a response
	// body is written to a temporary file instead of memory. Zero means
	// DefaultSpoolThreshold. A negative value disables spooling.
	SpoolThreshold int64

	// TempDir is the directory for spooled bodies. Empty means the
	// default directory for temporary files.
	TempDir string

	// UserAgent is set on requests which carry no User-Agent header.
	UserAgent string
}

// DefaultConfig returns the configuration used when NewHTTP is given a
// zero Config.
func DefaultConfig() Config {
	return Config{
		SpoolThreshold: DefaultSpoolThreshold,
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.SpoolThreshold == 0 {
		cfg.SpoolThreshold = DefaultSpoolThreshold
	}
	return cfg
}
