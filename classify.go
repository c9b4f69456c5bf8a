// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Character classifiers: precomputed 256-entry boolean tables, the Go
// analogue of milo's compile-time generated match arms
// (original_source/macros/src/matchers.rs). Each is a plain array lookup,
// the cheapest possible test in the bulk-consumption hot path
// (spec.md section 4.4).

var isDigitTab [256]bool
var isHexDigitTab [256]bool
var isTokenTab [256]bool
var isTokenValueTab [256]bool
var isTokenValueQuotedTab [256]bool
var isURLTab [256]bool
var isOWSTab [256]bool

func init() {
	for c := 0; c < 256; c++ {
		isDigitTab[c] = c >= '0' && c <= '9'
		isHexDigitTab[c] = (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
		isOWSTab[c] = c == '\t' || c == ' '
	}

	// token: RFC 9110 section 5.6.2 / RFC 5234 appendix B.1
	//   DIGIT | ALPHA | "!" | "#" | "$" | "%" | "&" | "'" | "*" | "+" |
	//   "-" | "." | "^" | "_" | "`" | "|" | "~"
	const tokenExtra = "!#$%&'*+-.^_`|~"
	for c := 0; c < 256; c++ {
		isTokenTab[c] = isDigitTab[c] || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	for i := 0; i < len(tokenExtra); i++ {
		isTokenTab[tokenExtra[i]] = true
	}

	// token-value: RFC 9112 section 4 -- HTAB / SP / VCHAR / obs-text
	for c := 0; c < 256; c++ {
		isTokenValueTab[c] = c == '\t' || c == ' ' || (c >= 0x21 && c <= 0x7e) || c >= 0x80
	}

	// token-value-quoted: RFC 9110 section 5.6.4 quoted-string body,
	// excluding the closing DQUOTE and the backslash that introduces a
	// quoted-pair (both are handled explicitly by the chunk-extension
	// quoted-value state handler).
	for c := 0; c < 256; c++ {
		isTokenValueQuotedTab[c] = c == '\t' || c == ' ' || c == 0x21 ||
			(c >= 0x23 && c <= 0x5b) || (c >= 0x5d && c <= 0x7e) || c >= 0x80
	}

	// url: RFC 3986 appendix A / RFC 5234 appendix B.1
	//   DIGIT | ALPHA | "-" | "." | "_" | "~" | ":" | "/" | "?" | "#" |
	//   "[" | "]" | "@" | "!" | "$" | "&" | "'" | "(" | ")" | "*" | "+" |
	//   "," | ";" | "=" | "%"
	const urlExtra = "-._~:/?#[]@!$&'()*+,;=%"
	for c := 0; c < 256; c++ {
		isURLTab[c] = isDigitTab[c] || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	for i := 0; i < len(urlExtra); i++ {
		isURLTab[urlExtra[i]] = true
	}
}

func isDigit(c byte) bool            { return isDigitTab[c] }
func isHexDigit(c byte) bool         { return isHexDigitTab[c] }
func isToken(c byte) bool            { return isTokenTab[c] }
func isTokenValue(c byte) bool       { return isTokenValueTab[c] }
func isTokenValueQuoted(c byte) bool { return isTokenValueQuotedTab[c] }
func isURLChar(c byte) bool          { return isURLTab[c] }
func isOWS(c byte) bool              { return isOWSTab[c] }

// scanWhile returns the length of the longest prefix of buf whose bytes
// all satisfy class. This is the hot bulk-consumption loop: a tight scan
// with no callbacks per byte (spec.md section 4.4).
func scanWhile(buf []byte, class func(byte) bool) int {
	i := 0
	for i < len(buf) && class(buf[i]) {
		i++
	}
	return i
}
