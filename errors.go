// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Error is the numeric error code reported through Parser.ErrorCode() and
// via the OnError callback. It mirrors the teacher's ErrorHdr convention
// of a small fixed enum paired with a human readable description.
type Error uint8

// Error codes, per spec.md section 7.
const (
	ErrNone Error = iota
	ErrUnexpectedData
	ErrUnexpectedCharacter
	ErrUnexpectedContentLength
	ErrUnexpectedTransferEncoding
	ErrUnexpectedContent
	ErrUnexpectedTrailers
	ErrInvalidVersion
	ErrInvalidStatus
	ErrInvalidContentLength
	ErrInvalidTransferEncoding
	ErrInvalidChunkSize
	ErrMissingConnectionUpgrade
	ErrUnsupportedHTTPVersion
	ErrCallbackError
)

var errNames = [...]string{
	ErrNone:                       "NONE",
	ErrUnexpectedData:             "UNEXPECTED_DATA",
	ErrUnexpectedCharacter:        "UNEXPECTED_CHARACTER",
	ErrUnexpectedContentLength:    "UNEXPECTED_CONTENT_LENGTH",
	ErrUnexpectedTransferEncoding: "UNEXPECTED_TRANSFER_ENCODING",
	ErrUnexpectedContent:          "UNEXPECTED_CONTENT",
	ErrUnexpectedTrailers:         "UNEXPECTED_TRAILERS",
	ErrInvalidVersion:             "INVALID_VERSION",
	ErrInvalidStatus:              "INVALID_STATUS",
	ErrInvalidContentLength:       "INVALID_CONTENT_LENGTH",
	ErrInvalidTransferEncoding:    "INVALID_TRANSFER_ENCODING",
	ErrInvalidChunkSize:           "INVALID_CHUNK_SIZE",
	ErrMissingConnectionUpgrade:   "MISSING_CONNECTION_UPGRADE",
	ErrUnsupportedHTTPVersion:     "UNSUPPORTED_HTTP_VERSION",
	ErrCallbackError:              "CALLBACK_ERROR",
}

// String implements fmt.Stringer, returning the canonical identifier
// name for the error code (see spec.md's GLOSSARY naming convention).
func (e Error) String() string {
	if int(e) >= len(errNames) {
		return "UNKNOWN"
	}
	return errNames[e]
}

// ParseError pairs an Error code with a human readable description set by
// the failing state handler. It implements the standard error interface.
type ParseError struct {
	Code Error
	Desc string
}

func (e *ParseError) Error() string {
	if e == nil || e.Code == ErrNone {
		return "NONE"
	}
	if e.Desc == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Desc
}
