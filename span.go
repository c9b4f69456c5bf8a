// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package httpparse implements an incremental, zero-copy HTTP/1.x and
// RTSP/1.0 message parser. It consumes a stream of octets in arbitrarily
// sized chunks and reports the protocol elements it recognizes through a
// settable table of callbacks, each receiving an offset and a length that
// Parser.Bytes resolves to the reported bytes. The parser never buffers
// the whole message.
package httpparse

// OffsT is the type used for offsets and lengths inside a Span. It is
// wide enough for HTTP messages well beyond the 64K SIP-message ceiling
// the teacher's equivalent type assumed.
type OffsT uint32

// Span identifies a byte range [Offs, Offs+Len) inside a buffer handed to
// Parse. It never copies; it only ever indexes into the caller's slice.
type Span struct {
	Offs OffsT
	Len  OffsT
}

// Set points s at buf[start:end). end is the offset of the first byte
// after the range.
func (s *Span) Set(start, end int) {
	if end < start {
		panic("httpparse: invalid span range")
	}
	s.Offs = OffsT(start)
	s.Len = OffsT(end - start)
}

// Reset clears s to the empty span.
func (s *Span) Reset() {
	s.Offs = 0
	s.Len = 0
}

// Extend grows s so that it ends at newEnd (newEnd is the offset of the
// first byte after the new range).
func (s *Span) Extend(newEnd int) {
	if newEnd < int(s.Offs) {
		panic("httpparse: invalid span end offset")
	}
	s.Len = OffsT(newEnd) - s.Offs
}

// Empty returns true if s has zero length.
func (s Span) Empty() bool {
	return s.Len == 0
}

// End returns the offset of the first byte after s.
func (s Span) End() int {
	return int(s.Offs) + int(s.Len)
}

// Get returns the byte slice of buf corresponding to s.
func (s Span) Get(buf []byte) []byte {
	return buf[s.Offs : s.Offs+s.Len]
}
