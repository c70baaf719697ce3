// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts attempt errors into categories that may heal
// on a later attempt and errors that will not. The scheduler uses it to
// recognise attempt timeouts, and retry deciders use it to refuse
// retries that cannot help.
//
// Besides the usual socket errors, Categorize understands the stream
// and connection level errors reported by the golang.org/x/net/http2
// transport, which is what transport.HTTP runs when HTTP/2 is forced.
package transient
