// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package diag is the structured logging setup shared by this module's
// command-line harnesses (cmd/httpparse-demo, cmd/httpparse-fuzzcheck).
// It is never imported by the parser package itself: the core DFA has no
// ambient side effects, per spec.md section 9's zero-copy/no-allocation
// discipline.
package diag

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing human-readable output to w when
// pretty is true (a terminal), or newline-delimited JSON otherwise (for
// log aggregation), matching the console-vs-JSON split most of the pack
// applies around zerolog.
func New(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Default returns a logger writing to stderr, pretty-printed when stderr
// is a terminal.
func Default() zerolog.Logger {
	fi, err := os.Stderr.Stat()
	pretty := err == nil && (fi.Mode()&os.ModeCharDevice) != 0
	return New(os.Stderr, pretty)
}

// ParserFields returns the subset of parser state worth attaching to a
// log line when something goes wrong mid-parse: state name, bytes
// parsed so far, and the caller-assigned id.
func ParserFields(e *zerolog.Event, state string, parsed int64, id uint64) *zerolog.Event {
	return e.Str("state", state).Int64("parsed", parsed).Uint64("parser_id", id)
}
