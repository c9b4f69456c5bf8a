// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// MessageType selects which grammar Parse should expect (spec.md
// section 3). Autodetect is the default, mirroring the teacher's
// convention of defaulting PMsg to its zero value and only special
// casing once real content arrives.
type MessageType uint8

const (
	Autodetect MessageType = iota
	Request
	Response
)

func (t MessageType) String() string {
	switch t {
	case Request:
		return "REQUEST"
	case Response:
		return "RESPONSE"
	default:
		return "AUTODETECT"
	}
}

// Connection is the parsed disposition of the Connection header
// (spec.md section 3).
type Connection uint8

const (
	ConnKeepAlive Connection = iota
	ConnClose
	ConnUpgrade
)

func (c Connection) String() string {
	switch c {
	case ConnClose:
		return "CLOSE"
	case ConnUpgrade:
		return "UPGRADE"
	default:
		return "KEEPALIVE"
	}
}

// defaultMaxHeaders is not referenced by the parser: no header count is
// tracked and the number of headers in a message is not bounded
// (headers themselves are never buffered beyond name/value spans
// already in flight).
const defaultMaxHeaders = 256

// Config groups the caller-configurable fields a Parser is created
// with, following the teacher's PMsg.Init(msg, hdrs) convention of
// passing pre-sized resources in rather than building a generic options
// framework.
type Config struct {
	// Mode selects REQUEST/RESPONSE/AUTODETECT (spec.md section 3).
	Mode MessageType
	// ManageUnconsumed, if true, makes the parser keep an owned copy of
	// any unconsumed tail bytes between Parse calls (spec.md section 5).
	// If false, the caller must re-present the unconsumed suffix itself.
	ManageUnconsumed bool
}

// Parser is the opaque parsing state record described in spec.md
// section 3. Zero value is not directly usable; construct with New.
type Parser struct {
	cb Callbacks

	// DFA position.
	state State
	pos   int   // offset already consumed within the current Parse call
	work  []byte
	tail  []byte // owned unconsumed suffix, valid when manageUnconsumed
	parsed int64 // cumulative parsed byte count across calls

	// caller configuration.
	mode             MessageType
	manageUnconsumed bool
	id               uint64

	// message classification.
	messageType MessageType
	method      Method
	isConnect   bool
	isConnectOverride bool
	status      uint16
	versionMajor uint8
	versionMinor uint8
	connection   Connection
	// versionProtocolSeen tracks, within RESPONSE_VERSION only, whether
	// the "HTTP/"/"RTSP/" literal has already been matched and its
	// on_protocol callback fired; it lets that single state be resumed
	// after a suspend without re-matching (and re-firing on_protocol
	// for) the literal it already committed past.
	versionProtocolSeen bool

	// framing.
	hasContentLength           bool
	contentLength              uint64
	remainingContentLength     uint64
	hasChunkedTransferEncoding bool
	chunkDuplicateGuard        bool
	chunkSize                  uint64
	remainingChunkSize         uint64
	hasUpgrade                 bool
	hasTrailers                bool
	skipBody                   bool

	// in-flight header scratch (valid only between HEADER_NAME/VALUE
	// transitions, never retained across Parse returns as payload).
	headerNameLower [64]byte
	headerNameLen   int
	headerKind      headerKind

	// suspension / error.
	paused  bool
	errCode Error
	errDesc string
}

// headerKind identifies which specialized value grammar a header name
// dispatches to (spec.md section 4.3, "Header name").
type headerKind uint8

const (
	headerGeneric headerKind = iota
	headerContentLength
	headerTransferEncoding
	headerConnection
	headerTrailer
	headerUpgrade
)

// New creates a parser ready to parse its first message.
func New(cfg Config) *Parser {
	p := &Parser{}
	p.cb = defaultCallbacks()
	p.mode = cfg.Mode
	p.manageUnconsumed = cfg.ManageUnconsumed
	p.state = StateStart
	p.connection = ConnKeepAlive
	return p
}

// SetCallbacks installs the callback table. Unset fields in cbs are
// replaced with no-ops so call sites never need a nil check.
func (p *Parser) SetCallbacks(cbs Callbacks) {
	if cbs.OnMessageStart == nil {
		cbs.OnMessageStart = noopCallback
	}
	if cbs.OnRequest == nil {
		cbs.OnRequest = noopCallback
	}
	if cbs.OnResponse == nil {
		cbs.OnResponse = noopCallback
	}
	if cbs.OnMethod == nil {
		cbs.OnMethod = noopCallback
	}
	if cbs.OnURL == nil {
		cbs.OnURL = noopCallback
	}
	if cbs.OnProtocol == nil {
		cbs.OnProtocol = noopCallback
	}
	if cbs.OnVersion == nil {
		cbs.OnVersion = noopCallback
	}
	if cbs.OnStatus == nil {
		cbs.OnStatus = noopCallback
	}
	if cbs.OnReason == nil {
		cbs.OnReason = noopCallback
	}
	if cbs.OnHeaderName == nil {
		cbs.OnHeaderName = noopCallback
	}
	if cbs.OnHeaderValue == nil {
		cbs.OnHeaderValue = noopCallback
	}
	if cbs.OnHeaders == nil {
		cbs.OnHeaders = noopCallback
	}
	if cbs.OnUpgrade == nil {
		cbs.OnUpgrade = noopCallback
	}
	if cbs.OnConnect == nil {
		cbs.OnConnect = noopCallback
	}
	if cbs.OnData == nil {
		cbs.OnData = noopCallback
	}
	if cbs.OnBody == nil {
		cbs.OnBody = noopCallback
	}
	if cbs.OnChunkLength == nil {
		cbs.OnChunkLength = noopCallback
	}
	if cbs.OnChunkExtensionName == nil {
		cbs.OnChunkExtensionName = noopCallback
	}
	if cbs.OnChunkExtensionValue == nil {
		cbs.OnChunkExtensionValue = noopCallback
	}
	if cbs.OnChunk == nil {
		cbs.OnChunk = noopCallback
	}
	if cbs.OnTrailerName == nil {
		cbs.OnTrailerName = noopCallback
	}
	if cbs.OnTrailerValue == nil {
		cbs.OnTrailerValue = noopCallback
	}
	if cbs.OnTrailers == nil {
		cbs.OnTrailers = noopCallback
	}
	if cbs.OnMessageComplete == nil {
		cbs.OnMessageComplete = noopCallback
	}
	if cbs.OnReset == nil {
		cbs.OnReset = noopCallback
	}
	if cbs.OnFinish == nil {
		cbs.OnFinish = noopCallback
	}
	if cbs.OnError == nil {
		cbs.OnError = noopCallback
	}
	if cbs.OnStateChange == nil {
		cbs.OnStateChange = noopStateChange
	}
	p.cb = cbs
}

// Reset returns the parser to START. If keepParsed is true, the
// cumulative Parsed() counter survives the reset (spec.md section 3,
// "Lifecycle").
func (p *Parser) Reset(keepParsed bool) {
	parsed := p.parsed
	cb := p.cb
	mode := p.mode
	manage := p.manageUnconsumed
	id := p.id
	*p = Parser{}
	p.cb = cb
	p.mode = mode
	p.manageUnconsumed = manage
	p.id = id
	p.state = StateStart
	p.connection = ConnKeepAlive
	if keepParsed {
		p.parsed = parsed
	}
}

// --- setters -------------------------------------------------------------

// SetID sets a caller-chosen numeric identifier, useful for correlating
// parser instances in logs; it is never interpreted by the parser.
func (p *Parser) SetID(id uint64) { p.id = id }

// SetMode changes the request/response detection mode.
func (p *Parser) SetMode(m MessageType) { p.mode = m }

// SetManageUnconsumed toggles whether the parser keeps an owned copy of
// unconsumed tail bytes between Parse calls.
func (p *Parser) SetManageUnconsumed(v bool) { p.manageUnconsumed = v }

// SetIsConnect overrides the CONNECT detection (e.g. for protocols that
// tunnel without a literal CONNECT method).
func (p *Parser) SetIsConnect(v bool) {
	p.isConnect = v
	p.isConnectOverride = v
}

// SetSkipBody instructs the parser to treat the message as having no
// body regardless of framing headers (used by HEAD response callers).
func (p *Parser) SetSkipBody(v bool) { p.skipBody = v }

// --- getters -------------------------------------------------------------

func (p *Parser) ID() uint64                   { return p.id }
func (p *Parser) State() State                 { return p.state }
func (p *Parser) Position() int                { return p.pos }
func (p *Parser) Parsed() int64                { return p.parsed }
func (p *Parser) Paused() bool                 { return p.paused }
func (p *Parser) ErrorCode() Error             { return p.errCode }
func (p *Parser) ErrorDescription() string     { return p.errDesc }
func (p *Parser) MessageType() MessageType     { return p.messageType }
func (p *Parser) Method() Method               { return p.method }
func (p *Parser) Status() uint16               { return p.status }
func (p *Parser) VersionMajor() uint8          { return p.versionMajor }
func (p *Parser) VersionMinor() uint8          { return p.versionMinor }
func (p *Parser) ConnectionValue() Connection  { return p.connection }
func (p *Parser) HasContentLength() bool       { return p.hasContentLength }
func (p *Parser) HasChunkedTransferEncoding() bool { return p.hasChunkedTransferEncoding }
func (p *Parser) HasUpgrade() bool             { return p.hasUpgrade }
func (p *Parser) HasTrailers() bool            { return p.hasTrailers }
func (p *Parser) IsConnect() bool              { return p.isConnect }
func (p *Parser) ContentLength() uint64        { return p.contentLength }
func (p *Parser) ChunkSize() uint64            { return p.chunkSize }
func (p *Parser) RemainingContentLength() uint64 { return p.remainingContentLength }
func (p *Parser) RemainingChunkSize() uint64   { return p.remainingChunkSize }
func (p *Parser) UnconsumedLen() int           { return len(p.tail) }
func (p *Parser) SkipBody() bool               { return p.skipBody }

// Bytes resolves a (offset, length) pair as reported by a Callback into
// the actual bytes it names. When the Parse call started without a
// retained tail, this is a window directly into the slice passed to
// that call; when it started with one (spec.md section 5), Parse first
// copies the tail and the new bytes into a freshly allocated working
// buffer (see drive.go), and every offset reported during that call
// is relative to that buffer. Callers must not retain the returned
// slice past the callback's return, since it may alias a buffer the
// parser reuses or discards on the next Parse call.
func (p *Parser) Bytes(offset, length int) []byte {
	return p.work[offset : offset+length]
}

// Error returns a *ParseError if the parser is in the ERROR state, nil
// otherwise.
func (p *Parser) Error() *ParseError {
	if p.errCode == ErrNone {
		return nil
	}
	return &ParseError{Code: p.errCode, Desc: p.errDesc}
}

// --- lifecycle control ---------------------------------------------------

// Pause suspends the parser after the current state handler returns.
// Subsequent Parse calls return 0 without advancing until Resume is
// called (spec.md section 5).
func (p *Parser) Pause() { p.paused = true }

// Resume clears the paused flag set by Pause or by a callback.
func (p *Parser) Resume() { p.paused = false }

// Finish forces end-of-stream handling (spec.md section 5): if the
// parser is idle (START) it transitions straight to FINISH; if it is in
// a state that accepts EOF as an end-of-message marker (BODY_WITH_NO_LENGTH),
// it emits OnBody then OnFinish; any other in-progress state is an
// error, since the message was truncated.
func (p *Parser) Finish() *ParseError {
	switch p.state {
	case StateStart:
		p.callback(p.cb.OnFinish, 0, 0)
		p.setState(StateFinish)
		return nil
	case StateBodyWithNoLength:
		p.callback(p.cb.OnBody, 0, 0)
		p.callback(p.cb.OnFinish, 0, 0)
		p.setState(StateFinish)
		return nil
	case StateFinish:
		return nil
	default:
		p.fail(ErrUnexpectedData, "finish() called with a message still in progress")
		return p.Error()
	}
}

func (p *Parser) setState(to State) {
	from := p.state
	if from == StateError && to != StateError {
		return // ERROR is left only through Reset
	}
	p.state = to
	if p.cb.OnStateChange != nil {
		p.cb.OnStateChange(p, from, to)
	}
}

// fail transitions the parser to ERROR, recording code/desc and firing
// OnError. It always returns -1 so state handlers can `return p.fail(...)`.
func (p *Parser) fail(code Error, desc string) int {
	p.errCode = code
	p.errDesc = desc
	p.setState(StateError)
	p.callback(p.cb.OnError, 0, 0)
	return -1
}

// callback invokes cb with the given offset/length relative to the
// current work buffer and, if it returns non-zero, fails the parser
// with ErrCallbackError exactly like Parser.fail does (state = ERROR,
// on_error fired) so the drive loop's existing post-handler StateError
// check stops it on the next iteration regardless of what the call
// site's own return value is. It returns cb's raw return value; every
// call site, data callbacks (OnData, OnChunk) included, returns at once
// on a non-zero value without advancing past the reported bytes (see
// DESIGN.md).
func (p *Parser) callback(cb Callback, offset, length int) int {
	rv := cb(p, offset, length)
	if rv != 0 && p.errCode == ErrNone {
		p.errCode = ErrCallbackError
		p.errDesc = "callback returned a non-zero status"
		p.setState(StateError)
		p.callback(p.cb.OnError, 0, 0)
	}
	return rv
}
