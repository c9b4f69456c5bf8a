// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// State identifies the parser's current position in the DFA (spec.md
// section 4.3). Unlike the teacher, which keeps one small state enum per
// grammar fragment (PFLineIState, PMsgIState, ...), this module follows
// milo's shape of a single state space for the whole message, since the
// callback contract (spec.md section 4.2) requires one globally
// addressable "current state" for OnStateChange and for resuming after a
// pause.
//
// Where milo's code-generation macros emit a separate "X" / "X_complete"
// pair of states purely so the generator has a place to hang the
// post-callback jump, this module collapses each such pair into a single
// handler that fires its callbacks back to back before returning: that
// split is a build-time artifact of the generator (spec.md section 9)
// and has no business appearing in a hand-written state table.
type State uint8

const (
	StateStart State = iota
	StateAutodetect
	StateRequest
	StateRequestMethod
	StateRequestURL
	StateRequestProtocol
	StateRequestVersion
	StateResponse
	StateResponseVersion
	StateResponseStatus
	StateResponseReason
	StateHeaderName
	StateHeaderValue
	StateHeaderContentLength
	StateHeaderTransferEncoding
	StateHeaderConnection
	StateHeaders
	StateBodyViaContentLength
	StateBodyWithNoLength
	StateChunkLength
	StateChunkExtensionName
	StateChunkExtensionValue
	StateChunkExtensionQuotedValue
	StateChunkData
	StateChunkEnd
	StateCRLFAfterLastChunk
	StateTrailerName
	StateTrailerValue
	StateComplete
	StateTunnel
	StateFinish
	StateError
)

var stateNames = [...]string{
	StateStart:                     "START",
	StateAutodetect:                "AUTODETECT",
	StateRequest:                   "REQUEST",
	StateRequestMethod:             "REQUEST_METHOD",
	StateRequestURL:                "REQUEST_URL",
	StateRequestProtocol:           "REQUEST_PROTOCOL",
	StateRequestVersion:            "REQUEST_VERSION",
	StateResponse:                  "RESPONSE",
	StateResponseVersion:           "RESPONSE_VERSION",
	StateResponseStatus:            "RESPONSE_STATUS",
	StateResponseReason:            "RESPONSE_REASON",
	StateHeaderName:                "HEADER_NAME",
	StateHeaderValue:               "HEADER_VALUE",
	StateHeaderContentLength:       "HEADER_CONTENT_LENGTH",
	StateHeaderTransferEncoding:    "HEADER_TRANSFER_ENCODING",
	StateHeaderConnection:          "HEADER_CONNECTION",
	StateHeaders:                   "HEADERS",
	StateBodyViaContentLength:      "BODY_VIA_CONTENT_LENGTH",
	StateBodyWithNoLength:          "BODY_WITH_NO_LENGTH",
	StateChunkLength:               "CHUNK_LENGTH",
	StateChunkExtensionName:        "CHUNK_EXTENSION_NAME",
	StateChunkExtensionValue:       "CHUNK_EXTENSION_VALUE",
	StateChunkExtensionQuotedValue: "CHUNK_EXTENSION_QUOTED_VALUE",
	StateChunkData:                 "CHUNK_DATA",
	StateChunkEnd:                  "CHUNK_END",
	StateCRLFAfterLastChunk:        "CRLF_AFTER_LAST_CHUNK",
	StateTrailerName:               "TRAILER_NAME",
	StateTrailerValue:              "TRAILER_VALUE",
	StateComplete:                  "COMPLETE",
	StateTunnel:                    "TUNNEL",
	StateFinish:                    "FINISH",
	StateError:                     "ERROR",
}

// String implements fmt.Stringer, returning the canonical state name
// (spec.md's GLOSSARY / section 4.3 naming).
func (s State) String() string {
	if int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}
