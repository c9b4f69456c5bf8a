// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

import (
	"bytes"
	"testing"
)

// event is one recorded callback invocation, capturing enough to assert
// both the value and the exact byte span the parser reported.
type event struct {
	name string
	data []byte
}

type recorder struct {
	events []event
}

func (r *recorder) record(name string) Callback {
	return func(p *Parser, offset, length int) int {
		var data []byte
		if length > 0 {
			data = append([]byte(nil), p.Bytes(offset, length)...)
		}
		r.events = append(r.events, event{name: name, data: data})
		return 0
	}
}

// newRecordingParser wires every callback to append a labeled event,
// resolving each span through Parser.Bytes the same way an external
// caller would, so a test can assert on both occurrence and content.
func newRecordingParser(cfg Config) (*Parser, *recorder) {
	r := &recorder{}
	p := New(cfg)
	capture := func(name string) Callback {
		return func(p *Parser, offset, length int) int {
			var data []byte
			if length > 0 {
				data = append([]byte(nil), p.Bytes(offset, length)...)
			}
			r.events = append(r.events, event{name: name, data: data})
			return 0
		}
	}
	p.SetCallbacks(Callbacks{
		OnMessageStart:        capture("message_start"),
		OnRequest:             capture("request"),
		OnResponse:            capture("response"),
		OnMethod:              capture("method"),
		OnURL:                 capture("url"),
		OnProtocol:            capture("protocol"),
		OnVersion:             capture("version"),
		OnStatus:              capture("status"),
		OnReason:              capture("reason"),
		OnHeaderName:          capture("header_name"),
		OnHeaderValue:         capture("header_value"),
		OnHeaders:             capture("headers"),
		OnUpgrade:             capture("upgrade"),
		OnConnect:             capture("connect"),
		OnData:                capture("data"),
		OnBody:                capture("body"),
		OnChunkLength:         capture("chunk_length"),
		OnChunkExtensionName:  capture("chunk_ext_name"),
		OnChunkExtensionValue: capture("chunk_ext_value"),
		OnChunk:               capture("chunk"),
		OnTrailerName:         capture("trailer_name"),
		OnTrailerValue:        capture("trailer_value"),
		OnTrailers:            capture("trailers"),
		OnMessageComplete:     capture("message_complete"),
		OnReset:               capture("reset"),
		OnFinish:              capture("finish"),
		OnError:               capture("error"),
	})
	return p, r
}

func (r *recorder) namesOf(name string) [][]byte {
	var out [][]byte
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e.data)
		}
	}
	return out
}

func (r *recorder) has(name string) bool {
	for _, e := range r.events {
		if e.name == name {
			return true
		}
	}
	return false
}

func mustParseAll(t *testing.T, p *Parser, buf []byte) {
	t.Helper()
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Parse consumed %d of %d bytes (paused=%v state=%s)", n, len(buf), p.Paused(), p.State())
	}
}

func TestSimpleGETRequest(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n")
	mustParseAll(t, p, buf)
	if m := r.namesOf("method"); len(m) != 1 || string(m[0]) != "GET" {
		t.Fatalf("method events = %q, want [GET]", m)
	}
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START", p.State())
	}
	urls := r.namesOf("url")
	if len(urls) != 1 || string(urls[0]) != "/index.html" {
		t.Fatalf("url events = %v", urls)
	}
	if !r.has("headers") || !r.has("message_complete") {
		t.Fatalf("missing boundary events: %+v", r.events)
	}
}

func TestSimpleResponseWithContentLength(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Response, ManageUnconsumed: true})
	buf := []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")
	mustParseAll(t, p, buf)
	if s := r.namesOf("status"); len(s) != 1 || string(s[0]) != "200" {
		t.Fatalf("status events = %q, want [200]", s)
	}
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START", p.State())
	}
	data := r.namesOf("data")
	if len(data) != 1 || string(data[0]) != "hello" {
		t.Fatalf("data events = %v", data)
	}
	if !r.has("body") {
		t.Fatalf("missing on_body")
	}
}

func TestChunkedRequestWithTrailer(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST /upload HTTP/1.1\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"Trailer: X-Checksum\r\n" +
		"\r\n" +
		"4\r\nWiki\r\n" +
		"5\r\npedia\r\n" +
		"0\r\n" +
		"X-Checksum: abc123\r\n" +
		"\r\n")
	mustParseAll(t, p, buf)
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START", p.State())
	}
	chunks := r.namesOf("chunk")
	if len(chunks) != 3 || string(chunks[0]) != "Wiki" || string(chunks[1]) != "pedia" || len(chunks[2]) != 0 {
		t.Fatalf("chunk events = %v, want [Wiki pedia <empty-terminating-chunk>]", chunks)
	}
	tv := r.namesOf("trailer_value")
	if len(tv) != 1 || string(tv[0]) != "abc123" {
		t.Fatalf("trailer_value events = %v", tv)
	}
	if !r.has("trailers") {
		t.Fatalf("missing on_trailers")
	}
	if !r.has("body") {
		t.Fatalf("missing on_body for the chunked body (spec.md section 8 scenario 3)")
	}
}

// TestArbitraryPartitioning feeds the same message one byte at a time
// and checks the resulting sequence of reported field values is
// identical to parsing it in one shot: the chunked-input equivalence
// property spec.md section 8 calls out. Body bytes are reported with one
// on_data per Parse call, so consecutive data events are merged before
// the two sequences are compared.
func TestArbitraryPartitioning(t *testing.T) {
	msg := []byte("PUT /x HTTP/1.1\r\n" +
		"Host: h\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"hello world")

	whole, rWhole := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	mustParseAll(t, whole, msg)

	partitioned, rPart := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	for i := 0; i < len(msg); i++ {
		n, err := partitioned.Parse(msg[i : i+1])
		if err != nil {
			t.Fatalf("Parse at byte %d: %v", i, err)
		}
		if n != 1 {
			t.Fatalf("Parse at byte %d consumed %d, want 1", i, n)
		}
	}
	if partitioned.State() != StateStart {
		t.Fatalf("partitioned state = %s, want START", partitioned.State())
	}

	mergeData := func(in []event) []event {
		var out []event
		for _, e := range in {
			if e.name == "data" && len(out) > 0 && out[len(out)-1].name == "data" {
				out[len(out)-1].data = append(out[len(out)-1].data, e.data...)
				continue
			}
			out = append(out, e)
		}
		return out
	}
	wholeEvents, partEvents := mergeData(rWhole.events), mergeData(rPart.events)
	if len(wholeEvents) != len(partEvents) {
		t.Fatalf("event count mismatch: whole=%d partitioned=%d", len(wholeEvents), len(partEvents))
	}
	for i := range wholeEvents {
		if wholeEvents[i].name != partEvents[i].name || !bytes.Equal(wholeEvents[i].data, partEvents[i].data) {
			t.Fatalf("event %d mismatch: whole=%+v partitioned=%+v", i, wholeEvents[i], partEvents[i])
		}
	}
}

func TestDuplicateContentLengthRejected(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 5\r\n\r\nhello")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrUnexpectedContentLength {
		t.Fatalf("err = %v, want ErrUnexpectedContentLength", err)
	}
}

func TestContentLengthWithChunkedRejected(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\n")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrUnexpectedTransferEncoding {
		t.Fatalf("err = %v, want ErrUnexpectedTransferEncoding", err)
	}
}

func TestChunkedNotLastRejected(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked, gzip\r\n\r\n")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrInvalidTransferEncoding {
		t.Fatalf("err = %v, want ErrInvalidTransferEncoding", err)
	}
}

func TestUpgradeWithoutConnectionRejected(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("GET / HTTP/1.1\r\nUpgrade: websocket\r\n\r\n")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrMissingConnectionUpgrade {
		t.Fatalf("err = %v, want ErrMissingConnectionUpgrade", err)
	}
	if !r.has("headers") {
		t.Fatalf("missing on_headers: MISSING_CONNECTION_UPGRADE must fail after on_headers, not before")
	}
}

// TestGetWithContentLengthRejected covers spec.md section 4.3 rule 3: a
// GET or HEAD request carrying a non-zero Content-Length is framing
// nonsense (there is no request body to frame) and must fail rather than
// silently gain a body.
func TestGetWithContentLengthRejected(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("GET / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrUnexpectedContent {
		t.Fatalf("err = %v, want ErrUnexpectedContent", err)
	}
}

// TestHeadWithZeroContentLengthAllowed confirms rule 3 only rejects a
// non-zero Content-Length: HEAD with Content-Length: 0 is a legitimate,
// common response-preview pattern.
func TestHeadWithZeroContentLengthAllowed(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("HEAD / HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d", n, len(buf))
	}
}

// TestTrailerWithoutChunkedRejected covers spec.md section 4.3 rule 6: a
// Trailer header only makes sense on a chunked body, since that is the
// only framing with a trailer section to announce.
func TestTrailerWithoutChunkedRejected(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nTrailer: X-Checksum\r\n\r\nhello")
	_, err := p.Parse(buf)
	if err == nil || err.Code != ErrUnexpectedTrailers {
		t.Fatalf("err = %v, want ErrUnexpectedTrailers", err)
	}
}

// TestCallbackErrorStopsParseInsteadOfHanging covers the CALLBACK_ERROR
// contract (spec.md sections 4.5/7): a boundary callback returning
// non-zero must fail the parser outright (state -> ERROR) rather than
// leave Parse looping forever over the same unconsumed bytes.
func TestCallbackErrorStopsParseInsteadOfHanging(t *testing.T) {
	p := New(Config{Mode: Request, ManageUnconsumed: true})
	p.SetCallbacks(Callbacks{
		OnHeaders: func(p *Parser, offset, length int) int {
			return 1
		},
	})
	buf := []byte("GET / HTTP/1.1\r\n\r\n")
	n, err := p.Parse(buf)
	if err == nil || err.Code != ErrCallbackError {
		t.Fatalf("err = %v, want ErrCallbackError", err)
	}
	if p.State() != StateError {
		t.Fatalf("state = %s, want ERROR", p.State())
	}
	if n < 0 {
		t.Fatalf("Parse returned negative consumed count instead of stopping cleanly: %d", n)
	}
}

func TestUpgradeWithConnectionEntersTunnel(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("GET / HTTP/1.1\r\nUpgrade: websocket\r\nConnection: upgrade\r\n\r\n")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d", n, len(buf))
	}
	if p.State() != StateTunnel {
		t.Fatalf("state = %s, want TUNNEL", p.State())
	}
}

func TestPipelining(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d (state=%s)", n, len(buf), p.State())
	}
	urls := r.namesOf("url")
	if len(urls) != 2 || string(urls[0]) != "/a" || string(urls[1]) != "/b" {
		t.Fatalf("url events = %v", urls)
	}
	resets := 0
	for _, e := range r.events {
		if e.name == "reset" {
			resets++
		}
	}
	if resets != 2 {
		t.Fatalf("reset count = %d, want 2 (both pipelined messages restart the DFA)", resets)
	}
}

func TestPauseAndResume(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	// Pause as soon as headers are seen, by overriding on_headers.
	p.SetCallbacks(Callbacks{
		OnHeaders: func(p *Parser, offset, length int) int {
			p.Pause()
			return 0
		},
		OnData: r.record("data"),
	})
	buf := []byte("POST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Paused() {
		t.Fatalf("parser not paused")
	}
	if n == len(buf) {
		t.Fatalf("paused parse should not consume the body yet")
	}
	p.Resume()
	n2, err := p.Parse(buf[n:])
	if err != nil {
		t.Fatalf("Parse after resume: %v", err)
	}
	if n+n2 != len(buf) {
		t.Fatalf("total consumed %d, want %d", n+n2, len(buf))
	}
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START", p.State())
	}
}

func TestAutodetectResponse(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Autodetect, ManageUnconsumed: true})
	buf := []byte("HTTP/1.1 204 No Content\r\n\r\n")
	mustParseAll(t, p, buf)
	if p.MessageType() != Response {
		t.Fatalf("message type = %v, want Response", p.MessageType())
	}
	if !r.has("response") {
		t.Fatalf("missing on_response: %+v", r.events)
	}
}

func TestAutodetectResponseWithRTSP(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Autodetect, ManageUnconsumed: true})
	buf := []byte("RTSP/1.0 200 OK\r\n\r\n")
	mustParseAll(t, p, buf)
	if p.MessageType() != Response {
		t.Fatalf("message type = %v, want Response", p.MessageType())
	}
	if !r.has("response") {
		t.Fatalf("missing on_response: %+v", r.events)
	}
}

func TestAutodetectRequest(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Autodetect, ManageUnconsumed: true})
	buf := []byte("GET / HTTP/1.1\r\n\r\n")
	mustParseAll(t, p, buf)
	if r.has("response") {
		t.Fatalf("request detected as a response: %+v", r.events)
	}
	if !r.has("request") {
		t.Fatalf("missing on_request: %+v", r.events)
	}
}

func TestConnectEntersTunnel(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d", n, len(buf))
	}
	if p.State() != StateTunnel {
		t.Fatalf("state = %s, want TUNNEL", p.State())
	}
	if !r.has("connect") {
		t.Fatalf("missing on_connect: %+v", r.events)
	}
}

func TestQuotedChunkExtensionValue(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	buf := []byte("POST /upload HTTP/1.1\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"4;name=\"quoted value\"\r\nWiki\r\n" +
		"0\r\n\r\n")
	mustParseAll(t, p, buf)
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START", p.State())
	}
	names := r.namesOf("chunk_ext_name")
	if len(names) != 1 || string(names[0]) != "name" {
		t.Fatalf("chunk_ext_name events = %v", names)
	}
	values := r.namesOf("chunk_ext_value")
	if len(values) != 1 || string(values[0]) != "quoted value" {
		t.Fatalf("chunk_ext_value events = %v", values)
	}
}

func TestResetKeepsID(t *testing.T) {
	p, _ := newRecordingParser(Config{Mode: Request, ManageUnconsumed: true})
	p.SetID(42)
	buf := []byte("GET / HTTP/1.1\r\n\r\n")
	mustParseAll(t, p, buf)
	p.Reset(false)
	if p.ID() != 42 {
		t.Fatalf("id = %d, want 42 to survive Reset", p.ID())
	}
	if p.State() != StateStart {
		t.Fatalf("state = %s, want START after Reset", p.State())
	}
	if p.Parsed() != 0 {
		t.Fatalf("parsed = %d, want 0 when keepParsed=false", p.Parsed())
	}
	buf2 := []byte("GET /again HTTP/1.1\r\n\r\n")
	mustParseAll(t, p, buf2)
	if p.State() != StateStart {
		t.Fatalf("state after second parse = %s, want START", p.State())
	}
}

func TestBodyWithNoLengthFinish(t *testing.T) {
	p, r := newRecordingParser(Config{Mode: Response, ManageUnconsumed: true})
	buf := []byte("HTTP/1.1 200 OK\r\n\r\nall the rest of the bytes")
	n, err := p.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d of %d", n, len(buf))
	}
	if p.State() != StateBodyWithNoLength {
		t.Fatalf("state = %s, want BODY_WITH_NO_LENGTH", p.State())
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if p.State() != StateFinish {
		t.Fatalf("state = %s, want FINISH", p.State())
	}
	if !r.has("finish") {
		t.Fatalf("missing on_finish")
	}
}
