// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Body states (spec.md section 4.3, "Body"). Unlike every other field in
// this parser, a body is never resolved with a single resolve-or-suspend
// bulk scan: it can be arbitrarily larger than any one buffer, so these
// handlers consume whatever is available and emit on_data incrementally,
// tracking how much remains across calls.

func init() {
	registerHandler(StateBodyViaContentLength, handleBodyViaContentLength)
	registerHandler(StateBodyWithNoLength, handleBodyWithNoLength)
}

func handleBodyViaContentLength(p *Parser, buf []byte) int {
	if len(buf) == 0 {
		return suspend
	}
	n := len(buf)
	if uint64(n) > p.remainingContentLength {
		n = int(p.remainingContentLength)
	}
	if n > 0 {
		if p.callback(p.cb.OnData, p.pos, n) != 0 {
			return 0
		}
		p.remainingContentLength -= uint64(n)
	}
	if p.remainingContentLength == 0 {
		if p.callback(p.cb.OnBody, 0, 0) != 0 {
			return 0
		}
		p.setState(StateComplete)
	}
	return n
}

// handleBodyWithNoLength implements the EOF-delimited body (spec.md
// section 4.3 and section 5's Finish): every byte offered is data, and
// the message only completes when the caller calls Finish.
func handleBodyWithNoLength(p *Parser, buf []byte) int {
	if len(buf) == 0 {
		return suspend
	}
	if p.callback(p.cb.OnData, p.pos, len(buf)) != 0 {
		return 0
	}
	return len(buf)
}
