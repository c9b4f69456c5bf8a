// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// Callback is the type of every parser event handler (spec.md section
// 4.5). offset and length are never relative to the parser's cumulative
// Parsed() count; resolve them to actual bytes with Parser.Bytes, not by
// indexing the slice most recently passed to Parse directly — a field
// that suspended mid-call (spec.md section 5) is served from the
// parser's own retained tail buffer instead, and Bytes is the one place
// that distinction is handled. The returned slice must not be retained
// past the callback's return (spec.md section 9, "Zero-copy").
//
// A return value of 0 means success. Any other value is a callback-side
// error: the parser fails with ErrCallbackError and the drive loop stops
// at once. This holds for every callback alike: data-emitting callbacks
// (OnData, OnChunk) are treated the same as boundary callbacks (state
// transitions, end of headers, ...), and the bytes a failing data
// callback was given are not counted as consumed. See DESIGN.md.
type Callback func(p *Parser, offset, length int) int

func noopCallback(p *Parser, offset, length int) int { return 0 }

// StateChangeCallback is the debug hook mentioned in spec.md section
// 4.5 ("before_state_change"/"after_state_change" or a single
// on_state_change hook). Unlike milo's cfg!(debug_assertions)-gated
// macro, this module always compiles it in: it costs nothing extra when
// left at its default no-op, matching the convention every other
// callback in this table already follows.
type StateChangeCallback func(p *Parser, from, to State)

func noopStateChange(p *Parser, from, to State) {}

// Callbacks is the settable event table (spec.md section 4, component
// 4 "Callback table"). Every entry defaults to a no-op; set only the
// ones a given caller cares about.
type Callbacks struct {
	OnMessageStart Callback
	OnRequest      Callback
	OnResponse     Callback

	OnMethod   Callback
	OnURL      Callback
	OnProtocol Callback
	OnVersion  Callback
	OnStatus   Callback
	OnReason   Callback

	OnHeaderName  Callback
	OnHeaderValue Callback
	OnHeaders     Callback

	OnUpgrade Callback
	OnConnect Callback

	OnData Callback
	OnBody Callback

	OnChunkLength         Callback
	OnChunkExtensionName  Callback
	OnChunkExtensionValue Callback
	OnChunk               Callback

	OnTrailerName  Callback
	OnTrailerValue Callback
	OnTrailers     Callback

	OnMessageComplete Callback
	OnReset           Callback
	OnFinish          Callback
	OnError           Callback

	OnStateChange StateChangeCallback
}

// defaultCallbacks returns a Callbacks table with every entry set to its
// no-op default, so a Parser never needs a nil check at a call site.
func defaultCallbacks() Callbacks {
	return Callbacks{
		OnMessageStart:        noopCallback,
		OnRequest:             noopCallback,
		OnResponse:            noopCallback,
		OnMethod:              noopCallback,
		OnURL:                 noopCallback,
		OnProtocol:            noopCallback,
		OnVersion:             noopCallback,
		OnStatus:              noopCallback,
		OnReason:              noopCallback,
		OnHeaderName:          noopCallback,
		OnHeaderValue:         noopCallback,
		OnHeaders:             noopCallback,
		OnUpgrade:             noopCallback,
		OnConnect:             noopCallback,
		OnData:                noopCallback,
		OnBody:                noopCallback,
		OnChunkLength:         noopCallback,
		OnChunkExtensionName:  noopCallback,
		OnChunkExtensionValue: noopCallback,
		OnChunk:               noopCallback,
		OnTrailerName:         noopCallback,
		OnTrailerValue:        noopCallback,
		OnTrailers:            noopCallback,
		OnMessageComplete:     noopCallback,
		OnReset:               noopCallback,
		OnFinish:              noopCallback,
		OnError:               noopCallback,
		OnStateChange:         noopStateChange,
	}
}

// OffsetEntry is one record in an OffsetRing (spec.md section 2,
// component 7 "Offset ring"). Span carries the (offset, length) pair a
// Callback would otherwise have received directly.
type OffsetEntry struct {
	State State
	Span  Span
}

// OffsetRing is a caller-visible circular buffer of (state, from,
// length) triples, for ABI bindings (WASM/cgo) that cannot receive Go
// closures directly: such a binding installs the callback table
// returned by NewOffsetRingCallbacks and then drains Entries after each
// Parse call. It is optional and unrelated to the core DFA; plain Go
// callers should just set Callbacks fields directly.
type OffsetRing struct {
	Entries []OffsetEntry
	cap     int
}

// NewOffsetRing allocates a ring that retains at most capacity entries,
// overwriting the oldest ones once full.
func NewOffsetRing(capacity int) *OffsetRing {
	return &OffsetRing{Entries: make([]OffsetEntry, 0, capacity), cap: capacity}
}

func (r *OffsetRing) push(e OffsetEntry) {
	if len(r.Entries) < r.cap {
		r.Entries = append(r.Entries, e)
		return
	}
	copy(r.Entries, r.Entries[1:])
	r.Entries[len(r.Entries)-1] = e
}

// Reset empties the ring without releasing its backing array.
func (r *OffsetRing) Reset() {
	r.Entries = r.Entries[:0]
}

// NewOffsetRingCallbacks builds a Callbacks table whose every entry
// pushes an OffsetEntry to ring and returns success, for embeddings that
// poll the ring instead of registering closures.
func NewOffsetRingCallbacks(ring *OffsetRing) Callbacks {
	record := func(s State) Callback {
		return func(p *Parser, offset, length int) int {
			var sp Span
			sp.Set(offset, offset+length)
			ring.push(OffsetEntry{State: s, Span: sp})
			return 0
		}
	}
	cbs := defaultCallbacks()
	cbs.OnMessageStart = record(StateStart)
	cbs.OnRequest = record(StateRequest)
	cbs.OnResponse = record(StateResponse)
	cbs.OnMethod = record(StateRequestMethod)
	cbs.OnURL = record(StateRequestURL)
	cbs.OnProtocol = record(StateRequestProtocol)
	cbs.OnVersion = record(StateRequestVersion)
	cbs.OnStatus = record(StateResponseStatus)
	cbs.OnReason = record(StateResponseReason)
	cbs.OnHeaderName = record(StateHeaderName)
	cbs.OnHeaderValue = record(StateHeaderValue)
	cbs.OnHeaders = record(StateHeaders)
	cbs.OnUpgrade = record(StateTunnel)
	cbs.OnConnect = record(StateTunnel)
	cbs.OnData = record(StateBodyViaContentLength)
	cbs.OnBody = record(StateComplete)
	cbs.OnChunkLength = record(StateChunkLength)
	cbs.OnChunkExtensionName = record(StateChunkExtensionName)
	cbs.OnChunkExtensionValue = record(StateChunkExtensionValue)
	cbs.OnChunk = record(StateChunkData)
	cbs.OnTrailerName = record(StateTrailerName)
	cbs.OnTrailerValue = record(StateTrailerValue)
	cbs.OnTrailers = record(StateTrailerValue)
	cbs.OnMessageComplete = record(StateComplete)
	cbs.OnReset = record(StateStart)
	cbs.OnFinish = record(StateFinish)
	cbs.OnError = record(StateError)
	return cbs
}
