// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

import "github.com/intuitivelabs/bytescase"

// Header states (spec.md section 4.3, "Header name"/"Header value"):
// HEADER_NAME dispatches by name to one of the framing-relevant value
// states (Content-Length, Transfer-Encoding, Connection) or to the
// generic HEADER_VALUE; HEADERS is the end-of-headers pseudo-state that
// decides body framing once every header line has been seen.

func init() {
	registerHandler(StateHeaderName, handleHeaderName)
	registerHandler(StateHeaderValue, handleHeaderValue)
	registerHandler(StateHeaderContentLength, handleHeaderContentLength)
	registerHandler(StateHeaderTransferEncoding, handleHeaderTransferEncoding)
	registerHandler(StateHeaderConnection, handleHeaderConnection)
	registerHandler(StateHeaders, handleHeaders)
}

// copyLower lowercases src into dst (ASCII only, which is all RFC 9110
// field names ever use) and returns how many bytes were copied, bounded
// by len(dst); a name longer than dst simply never matches any of the
// known framing names in classifyHeaderKind and falls back to generic.
func copyLower(dst, src []byte) int {
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		c := src[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		dst[i] = c
	}
	return n
}

func classifyHeaderKind(lowerName []byte) headerKind {
	switch string(lowerName) {
	case "content-length":
		return headerContentLength
	case "transfer-encoding":
		return headerTransferEncoding
	case "connection":
		return headerConnection
	case "trailer":
		return headerTrailer
	case "upgrade":
		return headerUpgrade
	default:
		return headerGeneric
	}
}

func stateForHeaderKind(k headerKind) State {
	switch k {
	case headerContentLength:
		return StateHeaderContentLength
	case headerTransferEncoding:
		return StateHeaderTransferEncoding
	case headerConnection:
		return StateHeaderConnection
	default:
		return StateHeaderValue
	}
}

// handleHeaderName recognizes end-of-headers (an immediate CRLF) or
// parses a header field name up to ':' and dispatches to the value
// state appropriate for it.
func handleHeaderName(p *Parser, buf []byte) int {
	switch matchCRLF(buf) {
	case matchYes:
		p.setState(StateHeaders)
		return 2
	case matchMore:
		return suspend
	}

	n := scanWhile(buf, isToken)
	if n == len(buf) {
		return suspend
	}
	if n == 0 {
		return p.fail(ErrUnexpectedCharacter, "empty header name")
	}
	if buf[n] != ':' {
		return p.fail(ErrUnexpectedCharacter, "expected ':' after header name")
	}

	p.headerNameLen = copyLower(p.headerNameLower[:], buf[:n])
	p.headerKind = classifyHeaderKind(p.headerNameLower[:p.headerNameLen])

	if p.callback(p.cb.OnHeaderName, p.pos, n) != 0 {
		return 0
	}
	p.setState(stateForHeaderKind(p.headerKind))
	return n + 1
}

// scanHeaderValue resolves one field-value line as a whole: leading OWS
// is skipped, trailing OWS is trimmed from the reported span (RFC 9110
// section 5.5), and the line must end in CRLF. It returns matchMore if
// buf doesn't yet contain the terminating CRLF, matchNo if a
// non-token-value byte appears before one, and matchYes with the value
// bounds and the total bytes the caller should advance by (including
// the CRLF) otherwise.
func scanHeaderValue(buf []byte) (valStart, valEnd, totalConsumed int, result matchResult) {
	ows := scanWhile(buf, isOWS)
	n := scanWhile(buf[ows:], isTokenValue)
	end := ows + n
	switch matchCRLF(buf[end:]) {
	case matchMore:
		return 0, 0, 0, matchMore
	case matchNo:
		return 0, 0, 0, matchNo
	}
	trimmed := end
	for trimmed > ows && isOWS(buf[trimmed-1]) {
		trimmed--
	}
	return ows, trimmed, end + 2, matchYes
}

// splitTokenList splits a comma-separated list of tokens (used by both
// Transfer-Encoding and Connection field values, RFC 9110 section 5.6.1),
// trimming OWS around each element. Empty elements (from consecutive
// commas) are dropped.
func splitTokenList(value []byte) [][]byte {
	var out [][]byte
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			elem := value[start:i]
			for len(elem) > 0 && isOWS(elem[0]) {
				elem = elem[1:]
			}
			for len(elem) > 0 && isOWS(elem[len(elem)-1]) {
				elem = elem[:len(elem)-1]
			}
			if len(elem) > 0 {
				out = append(out, elem)
			}
			start = i + 1
		}
	}
	return out
}

func handleHeaderValue(p *Parser, buf []byte) int {
	ows, end, total, r := scanHeaderValue(buf)
	switch r {
	case matchMore:
		return suspend
	case matchNo:
		return p.fail(ErrUnexpectedCharacter, "expected CRLF after header value")
	}
	switch p.headerKind {
	case headerUpgrade:
		p.hasUpgrade = true
	case headerTrailer:
		p.hasTrailers = true
	}
	if p.callback(p.cb.OnHeaderValue, p.pos+ows, end-ows) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return total
}

// handleHeaderContentLength parses the Content-Length value as an
// unsigned decimal integer and rejects the two framing conflicts
// spec.md section 7 calls out: a duplicate Content-Length, and a
// Content-Length alongside a chunked Transfer-Encoding already seen.
func handleHeaderContentLength(p *Parser, buf []byte) int {
	ows, end, total, r := scanHeaderValue(buf)
	switch r {
	case matchMore:
		return suspend
	case matchNo:
		return p.fail(ErrUnexpectedCharacter, "expected CRLF after header value")
	}
	value := buf[ows:end]
	if len(value) == 0 {
		return p.fail(ErrInvalidContentLength, "empty Content-Length")
	}
	if p.hasContentLength {
		return p.fail(ErrUnexpectedContentLength, "duplicate Content-Length header")
	}
	if p.hasChunkedTransferEncoding {
		return p.fail(ErrUnexpectedContentLength, "Content-Length with chunked Transfer-Encoding")
	}
	var v uint64
	for _, c := range value {
		if !isDigit(c) {
			return p.fail(ErrInvalidContentLength, "non-digit in Content-Length")
		}
		d := uint64(c - '0')
		if v > (^uint64(0)-d)/10 {
			return p.fail(ErrInvalidContentLength, "Content-Length overflow")
		}
		v = v*10 + d
	}
	p.hasContentLength = true
	p.contentLength = v
	p.remainingContentLength = v
	if p.callback(p.cb.OnHeaderValue, p.pos+ows, end-ows) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return total
}

// handleHeaderTransferEncoding parses the comma-separated coding list
// and rejects "chunked" unless it is the last coding, and a repeated
// chunked coding across header lines, per spec.md section 7.
func handleHeaderTransferEncoding(p *Parser, buf []byte) int {
	ows, end, total, r := scanHeaderValue(buf)
	switch r {
	case matchMore:
		return suspend
	case matchNo:
		return p.fail(ErrUnexpectedCharacter, "expected CRLF after header value")
	}
	if p.hasContentLength {
		return p.fail(ErrUnexpectedTransferEncoding, "Transfer-Encoding with Content-Length")
	}
	codings := splitTokenList(buf[ows:end])
	sawChunked := false
	for i, c := range codings {
		if bytescase.CmpEq(c, []byte("chunked")) {
			if i != len(codings)-1 {
				return p.fail(ErrInvalidTransferEncoding, "chunked must be the last coding")
			}
			sawChunked = true
		}
	}
	if sawChunked {
		if p.hasChunkedTransferEncoding {
			return p.fail(ErrInvalidTransferEncoding, "duplicate chunked Transfer-Encoding")
		}
		p.hasChunkedTransferEncoding = true
	}
	if p.callback(p.cb.OnHeaderValue, p.pos+ows, end-ows) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return total
}

// handleHeaderConnection parses the Connection header's token list and
// records the strongest disposition seen (close beats upgrade beats
// keep-alive); spec.md section 7's "Upgrade without Connection: upgrade"
// rejection is checked once all headers are in, in handleHeaders.
func handleHeaderConnection(p *Parser, buf []byte) int {
	ows, end, total, r := scanHeaderValue(buf)
	switch r {
	case matchMore:
		return suspend
	case matchNo:
		return p.fail(ErrUnexpectedCharacter, "expected CRLF after header value")
	}
	for _, t := range splitTokenList(buf[ows:end]) {
		switch {
		case bytescase.CmpEq(t, []byte("close")):
			p.connection = ConnClose
		case bytescase.CmpEq(t, []byte("upgrade")):
			if p.connection != ConnClose {
				p.connection = ConnUpgrade
			}
		}
	}
	if p.callback(p.cb.OnHeaderValue, p.pos+ows, end-ows) != 0 {
		return 0
	}
	p.setState(StateHeaderName)
	return total
}

// handleHeaders is the end-of-headers decision point (spec.md section
// 4.3): fires on_headers first, then runs rules 1-6 in order — Upgrade
// requires Connection: upgrade, GET/HEAD rejects a non-zero
// Content-Length, Trailer without chunked is rejected — before picking
// the body-framing state to enter next.
func handleHeaders(p *Parser, buf []byte) int {
	if p.callback(p.cb.OnHeaders, 0, 0) != 0 {
		return 0
	}

	if p.hasUpgrade && p.connection != ConnUpgrade {
		return p.fail(ErrMissingConnectionUpgrade, "Upgrade header without Connection: upgrade")
	}
	if p.messageType == Request && (p.method == MGet || p.method == MHead) && p.hasContentLength && p.contentLength > 0 {
		return p.fail(ErrUnexpectedContent, "GET/HEAD request with a non-zero Content-Length")
	}
	if p.hasTrailers && !p.hasChunkedTransferEncoding {
		return p.fail(ErrUnexpectedTrailers, "Trailer header without chunked Transfer-Encoding")
	}

	switch {
	case p.skipBody:
		p.setState(StateComplete)
	case p.isConnect:
		if p.callback(p.cb.OnConnect, 0, 0) != 0 {
			return 0
		}
		p.setState(StateTunnel)
	case p.hasUpgrade && p.connection == ConnUpgrade:
		if p.callback(p.cb.OnUpgrade, 0, 0) != 0 {
			return 0
		}
		p.setState(StateTunnel)
	case p.hasChunkedTransferEncoding:
		p.setState(StateChunkLength)
	case p.hasContentLength:
		if p.contentLength == 0 {
			p.setState(StateComplete)
		} else {
			p.setState(StateBodyViaContentLength)
		}
	case p.messageType == Response:
		p.setState(StateBodyWithNoLength)
	default:
		p.setState(StateComplete)
	}
	return 0
}
