// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Dispatch states (spec.md section 4.3, "Dispatch") and message
// completion/restart (spec.md section 4.3, "Completion").

func init() {
	registerHandler(StateStart, handleStart)
	registerHandler(StateAutodetect, handleAutodetect)
	registerHandler(StateRequest, handleRequestStart)
	registerHandler(StateResponse, handleResponseStart)
	registerHandler(StateComplete, handleComplete)
}

func handleStart(p *Parser, buf []byte) int {
	switch p.mode {
	case Request:
		p.setState(StateRequest)
	case Response:
		p.setState(StateResponse)
	default:
		p.setState(StateAutodetect)
	}
	return 0
}

// handleAutodetect implements spec.md section 4.3: an optional leading
// CRLF is skipped (RFC 9112 section 2.2), then the first 5 bytes decide
// REQUEST vs RESPONSE.
func handleAutodetect(p *Parser, buf []byte) int {
	switch matchCRLF(buf) {
	case matchYes:
		return 2
	case matchMore:
		return suspend
	}

	switch matchAnyN(buf, 5) {
	case matchMore:
		return suspend
	}
	if matchCaseInsensitive(buf, "HTTP/") == matchYes || matchCaseInsensitive(buf, "RTSP/") == matchYes {
		p.messageType = Response
		p.callback(p.cb.OnMessageStart, 0, 0)
		p.callback(p.cb.OnResponse, 0, 0)
		p.setState(StateResponse)
		return 0
	}
	// Not a protocol literal: assume a request; a non-method token will
	// fail in REQUEST_METHOD.
	p.messageType = Request
	p.callback(p.cb.OnMessageStart, 0, 0)
	p.callback(p.cb.OnRequest, 0, 0)
	p.setState(StateRequest)
	return 0
}

func handleRequestStart(p *Parser, buf []byte) int {
	switch matchCRLF(buf) {
	case matchYes:
		return 2
	case matchMore:
		return suspend
	}
	if p.messageType == Autodetect {
		p.messageType = Request
		p.callback(p.cb.OnMessageStart, 0, 0)
		p.callback(p.cb.OnRequest, 0, 0)
	}
	p.setState(StateRequestMethod)
	return 0
}

func handleResponseStart(p *Parser, buf []byte) int {
	switch matchCRLF(buf) {
	case matchYes:
		return 2
	case matchMore:
		return suspend
	}
	if p.messageType == Autodetect {
		p.messageType = Response
		p.callback(p.cb.OnMessageStart, 0, 0)
		p.callback(p.cb.OnResponse, 0, 0)
	}
	p.setState(StateResponseVersion)
	return 0
}

// restart clears per-message state and returns to START, ready for a
// pipelined follow-up message in the same buffer (spec.md section 4.3).
func (p *Parser) restart() {
	id := p.id
	cb := p.cb
	mode := p.mode
	manage := p.manageUnconsumed
	tail := p.tail
	parsed := p.parsed
	work := p.work
	pos := p.pos
	*p = Parser{}
	p.id = id
	p.cb = cb
	p.mode = mode
	p.manageUnconsumed = manage
	p.tail = tail
	p.parsed = parsed
	p.work = work
	p.pos = pos
	p.connection = ConnKeepAlive
	p.state = StateStart
}

func handleComplete(p *Parser, buf []byte) int {
	p.callback(p.cb.OnMessageComplete, 0, 0)
	if p.state == StateError {
		return 0
	}
	p.callback(p.cb.OnReset, 0, 0)
	if p.state == StateError {
		return 0
	}
	closing := p.connection == ConnClose
	p.restart()
	if closing {
		p.callback(p.cb.OnFinish, 0, 0)
		if p.state == StateError {
			return 0
		}
		p.setState(StateFinish)
	}
	return 0
}
