// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Status-line states (spec.md section 4.3, "Status line": RESPONSE ->
// RESPONSE_VERSION -> RESPONSE_STATUS -> RESPONSE_REASON -> HEADER_NAME).

func init() {
	registerHandler(StateResponseVersion, handleResponseVersion)
	registerHandler(StateResponseStatus, handleResponseStatus)
	registerHandler(StateResponseReason, handleResponseReason)
}

// handleResponseVersion folds protocol-literal matching and version
// parsing into the single RESPONSE_VERSION state, since spec.md's
// status line grammar has no separate protocol state (unlike the
// request line's REQUEST_PROTOCOL). The protocol literal and the
// version digits can straddle two different Parse calls, so the
// protocol match is committed (advance returned, on_protocol fired)
// before the digits are attempted, and p.versionProtocolSeen records
// that the state was re-entered past that point.
func handleResponseVersion(p *Parser, buf []byte) int {
	if !p.versionProtocolSeen {
		if matchAnyN(buf, 5) == matchMore {
			return suspend
		}
		if matchLiteral(buf, "HTTP/") != matchYes && matchLiteral(buf, "RTSP/") != matchYes {
			return p.fail(ErrUnexpectedCharacter, "expected HTTP/ or RTSP/ protocol literal")
		}
		if p.callback(p.cb.OnProtocol, p.pos, 4) != 0 {
			return 0
		}
		p.versionProtocolSeen = true
		return 5
	}

	const need = 4 // "D.D "
	if len(buf) < need {
		if !validateVersionPrefix(buf, ' ', 0) {
			return p.fail(ErrInvalidVersion, "malformed version")
		}
		return suspend
	}
	major, minor, ok := parseVersionDigits(buf)
	if !ok || buf[3] != ' ' {
		return p.fail(ErrInvalidVersion, "malformed version")
	}
	if !acceptedVersion(major, minor) {
		return p.fail(ErrInvalidVersion, "unsupported version")
	}
	p.versionMajor = major
	p.versionMinor = minor
	if p.callback(p.cb.OnVersion, p.pos, 3) != 0 {
		return 0
	}
	p.versionProtocolSeen = false
	p.setState(StateResponseStatus)
	return 4
}

// handleResponseStatus parses exactly three decimal digits followed by
// SP into the status code (spec.md section 4.3).
func handleResponseStatus(p *Parser, buf []byte) int {
	const need = 4 // "DDD "
	if len(buf) < need {
		for i, c := range buf {
			if i < 3 {
				if !isDigit(c) {
					return p.fail(ErrInvalidStatus, "malformed status code")
				}
			} else if c != ' ' {
				return p.fail(ErrInvalidStatus, "expected SP after status code")
			}
		}
		return suspend
	}
	if !isDigit(buf[0]) || !isDigit(buf[1]) || !isDigit(buf[2]) {
		return p.fail(ErrInvalidStatus, "malformed status code")
	}
	if buf[3] != ' ' {
		return p.fail(ErrInvalidStatus, "expected SP after status code")
	}
	status := int(buf[0]-'0')*100 + int(buf[1]-'0')*10 + int(buf[2]-'0')
	p.status = uint16(status)
	if p.callback(p.cb.OnStatus, p.pos, 3) != 0 {
		return 0
	}
	p.setState(StateResponseReason)
	return 4
}

// handleResponseReason consumes the longest token-value prefix up to
// CRLF; the reason phrase may be empty (spec.md section 4.3).
func handleResponseReason(p *Parser, buf []byte) int {
	n := scanWhile(buf, isTokenValue)
	switch matchCRLF(buf[n:]) {
	case matchMore:
		return suspend
	case matchNo:
		return p.fail(ErrUnexpectedCharacter, "expected CRLF after reason phrase")
	}
	if p.callback(p.cb.OnReason, p.pos, n) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return n + 2
}
