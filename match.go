// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

import "github.com/intuitivelabs/bytescase"

// matchResult is the outcome of a prefix matcher against a buffer
// suffix: either it matched (and consumed n bytes), it definitely did
// not match, or there is not enough data yet to decide (spec.md
// section 4.1).
type matchResult uint8

const (
	matchNo matchResult = iota
	matchYes
	matchMore
)

// matchCRLF matches exactly "\r\n" at the start of buf.
func matchCRLF(buf []byte) matchResult {
	if len(buf) < 2 {
		if len(buf) == 1 && buf[0] != '\r' {
			return matchNo
		}
		return matchMore
	}
	if buf[0] == '\r' && buf[1] == '\n' {
		return matchYes
	}
	return matchNo
}

// matchLiteral compares buf's prefix against the fixed, case-sensitive
// literal lit (e.g. the "HTTP/"/"RTSP/" protocol tokens, which RFC 9112
// section 2.3 requires to match exactly).
func matchLiteral(buf []byte, lit string) matchResult {
	if len(buf) >= len(lit) {
		for i := 0; i < len(lit); i++ {
			if buf[i] != lit[i] {
				return matchNo
			}
		}
		return matchYes
	}
	for i := 0; i < len(buf); i++ {
		if buf[i] != lit[i] {
			return matchNo
		}
	}
	return matchMore
}

// matchCaseInsensitive compares buf's prefix against the fixed literal
// lit using ASCII case folding (github.com/intuitivelabs/bytescase, the
// same library the teacher uses for case-insensitive header/token
// comparisons).
func matchCaseInsensitive(buf []byte, lit string) matchResult {
	if len(buf) >= len(lit) {
		if bytescase.CmpEq(buf[:len(lit)], []byte(lit)) {
			return matchYes
		}
		return matchNo
	}
	if bytescase.CmpEq(buf, []byte(lit[:len(buf)])) {
		return matchMore
	}
	return matchNo
}

// matchAnyN is the fallback "any N bytes" matcher (spec.md section 4.1):
// if fewer than n bytes remain, it is inconclusive (more input may still
// make a real matcher succeed); once n or more bytes are available and
// every more specific matcher has already failed, this is used to draw
// the line between "suspend" and "definitive mismatch".
func matchAnyN(buf []byte, n int) matchResult {
	if len(buf) < n {
		return matchMore
	}
	return matchYes
}
