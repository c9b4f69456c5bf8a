// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Request-line states (spec.md section 4.3, "Request line": REQUEST ->
// REQUEST_METHOD -> REQUEST_URL -> REQUEST_PROTOCOL -> REQUEST_VERSION ->
// HEADER_NAME).

func init() {
	registerHandler(StateRequestMethod, handleRequestMethod)
	registerHandler(StateRequestURL, handleRequestURL)
	registerHandler(StateRequestProtocol, handleRequestProtocol)
	registerHandler(StateRequestVersion, handleRequestVersion)
}

// handleRequestMethod consumes the longest prefix of token bytes,
// requires a following SP, and resolves it against the known method
// literals (spec.md section 4.3, "Request line").
func handleRequestMethod(p *Parser, buf []byte) int {
	n := scanWhile(buf, isToken)
	if n == len(buf) {
		return suspend
	}
	if buf[n] != ' ' {
		return p.fail(ErrUnexpectedCharacter, "expected SP after method")
	}
	m := GetMethodNo(buf[:n])
	if m == MOther {
		return p.fail(ErrUnexpectedCharacter, "unrecognized method")
	}
	p.method = m
	if !p.isConnectOverride {
		p.isConnect = m == MConnect
	}
	if p.callback(p.cb.OnMethod, p.pos, n) != 0 {
		return 0
	}
	p.setState(StateRequestURL)
	return n + 1
}

// handleRequestURL consumes the longest prefix of URL-valid bytes up to
// a mandatory SP (spec.md section 4.3).
func handleRequestURL(p *Parser, buf []byte) int {
	n := scanWhile(buf, isURLChar)
	if n == len(buf) {
		return suspend
	}
	if n == 0 {
		return p.fail(ErrUnexpectedCharacter, "empty request URL")
	}
	if buf[n] != ' ' {
		return p.fail(ErrUnexpectedCharacter, "expected SP after request URL")
	}
	if p.callback(p.cb.OnURL, p.pos, n) != 0 {
		return 0
	}
	p.setState(StateRequestProtocol)
	return n + 1
}

// handleRequestProtocol requires the literal "HTTP/" or "RTSP/" (spec.md
// section 4.3); the matcher here is matchAnyN (spec.md section 4.1's
// "any N bytes" fallback), which is what turns a too-short buffer into a
// suspend instead of a premature mismatch.
func handleRequestProtocol(p *Parser, buf []byte) int {
	if matchAnyN(buf, 5) == matchMore {
		return suspend
	}
	if matchLiteral(buf, "HTTP/") != matchYes && matchLiteral(buf, "RTSP/") != matchYes {
		return p.fail(ErrUnexpectedCharacter, "expected HTTP/ or RTSP/ protocol literal")
	}
	if p.callback(p.cb.OnProtocol, p.pos, 4) != 0 {
		return 0
	}
	p.setState(StateRequestVersion)
	return 5
}

// handleRequestVersion requires exactly "D.D\r\n" and accepts only 1.0
// (the RTSP version), 1.1 and 2.0, whichever protocol literal preceded
// it; PRI is rejected with HTTP/2.0 since
// this module never reaches the HTTP/2 connection preface.
func handleRequestVersion(p *Parser, buf []byte) int {
	const need = 5 // "D.D\r\n"
	if len(buf) < need {
		if !validateVersionPrefix(buf, '\r', '\n') {
			return p.fail(ErrInvalidVersion, "malformed version")
		}
		return suspend
	}
	major, minor, ok := parseVersionDigits(buf)
	if !ok || buf[3] != '\r' || buf[4] != '\n' {
		return p.fail(ErrInvalidVersion, "malformed version")
	}
	if !acceptedVersion(major, minor) {
		return p.fail(ErrInvalidVersion, "unsupported version")
	}
	if p.method == MPri && major == 2 && minor == 0 {
		return p.fail(ErrUnsupportedHTTPVersion, "PRI is not supported over HTTP/2.0")
	}
	p.versionMajor = major
	p.versionMinor = minor
	if p.callback(p.cb.OnVersion, p.pos, 3) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return 5
}

// parseVersionDigits reads the "D.D" at the start of buf, which must
// already have at least 3 bytes.
func parseVersionDigits(buf []byte) (major, minor uint8, ok bool) {
	if !isDigit(buf[0]) || buf[1] != '.' || !isDigit(buf[2]) {
		return 0, 0, false
	}
	return buf[0] - '0', buf[2] - '0', true
}

func acceptedVersion(major, minor uint8) bool {
	return (major == 1 && (minor == 0 || minor == 1)) || (major == 2 && minor == 0)
}

// validateVersionPrefix checks whatever prefix of "D.D<term1><term2>" is
// already available, so a malformed version is reported as soon as
// possible instead of only once the full field has arrived.
func validateVersionPrefix(buf []byte, term1, term2 byte) bool {
	for i, c := range buf {
		switch i {
		case 0, 2:
			if !isDigit(c) {
				return false
			}
		case 1:
			if c != '.' {
				return false
			}
		case 3:
			if c != term1 {
				return false
			}
		case 4:
			if c != term2 {
				return false
			}
		}
	}
	return true
}
