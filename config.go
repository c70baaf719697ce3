// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"log/slog"
	"time"

	"github.com/gogama/fanout/admission"
	"github.com/gogama/fanout/retry"
	"github.com/gogama/fanout/timeout"
	"github.com/gogama/fanout/transport"
)

const (
	// DefaultConcurrency is the concurrency limit in DefaultConfig.
	DefaultConcurrency = 8
	// DefaultPollInterval is the longest a scheduler waits on its
	// transport for events before reconsidering admission.
	DefaultPollInterval = 10 * time.Millisecond
)

// Config configures a Scheduler.
type Config struct {
	// Concurrency is the maximum number of attempts in flight at once.
	// It must be at least 1.
	Concurrency int

	// Transport runs the attempts. A transport reports events to one
	// consumer, so it must not be shared by schedulers which run at the
	// same time.
	// If nil, an HTTP multiplexer with transport.DefaultConfig is used.
	Transport transport.Multiplexer

	// RetryPolicy may veto or lengthen a retry which the descriptor's
	// MaxAttempts allows. It can never add attempts beyond MaxAttempts
	// or shorten the descriptor's RetryDelay.
	// If nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy

	// TimeoutPolicy sets the timeout of each attempt.
	// If nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy

	// Gate paces dispatch on top of the concurrency limit.
	// If nil, admission.Open is used.
	Gate admission.Gate

	// Handlers are run when events occur during a run.
	// If nil, no handlers are run.
	Handlers *HandlerGroup

	// PollInterval bounds each wait on the transport for events.
	// Zero means DefaultPollInterval. It may not be negative.
	PollInterval time.Duration

	// PartialResults makes Run return the successful executions
	// alongside an *AggregateRunError when some descriptors fail. By
	// default they are discarded and their bodies closed.
	PartialResults bool

	// Logger receives structured logs of each run.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with the default concurrency
// limit and every other field at its default.
func DefaultConfig() Config {
	return Config{
		Concurrency:  DefaultConcurrency,
		PollInterval: DefaultPollInterval,
	}
}

func (cfg Config) validate() error {
	if cfg.Concurrency < 1 {
		return &ConfigurationError{Field: "Concurrency", Value: cfg.Concurrency, Reason: "must be at least 1"}
	}
	if cfg.PollInterval < 0 {
		return &ConfigurationError{Field: "PollInterval", Value: cfg.PollInterval, Reason: "may not be negative"}
	}
	return nil
}

// withDefaults returns a validated copy of cfg with defaults applied
// for nil and zero values.
func (cfg Config) withDefaults() (Config, error) {
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.Transport == nil {
		m, err := transport.NewHTTP(transport.DefaultConfig())
		if err != nil {
			return cfg, &ConfigurationError{Field: "Transport", Value: nil, Reason: "default transport unavailable", Err: err}
		}
		cfg.Transport = m
	}
	if cfg.RetryPolicy == nil {
		cfg.RetryPolicy = retry.DefaultPolicy
	}
	if cfg.TimeoutPolicy == nil {
		cfg.TimeoutPolicy = timeout.DefaultPolicy
	}
	if cfg.Gate == nil {
		cfg.Gate = admission.Open
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return cfg, nil
}
