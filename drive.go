// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpparse

// stateHandler is the per-state function contract of spec.md section
// 4.2: given the parser and the unconsumed suffix of the current work
// buffer, it returns either a non-negative number of bytes to advance
// by, or suspend if it needs more input to decide. A handler may also
// transition the parser directly to StateError (via Parser.fail); the
// drive loop always checks for that before looking at the returned
// advance count, so fail's own -1 return value never gets confused with
// a genuine suspend.
type stateHandler func(p *Parser, buf []byte) int

// suspend is the sentinel a handler returns when its matcher would need
// more bytes than are currently available to decide (spec.md section
// 4.2).
const suspend = -1

// stateHandlers is the dispatch table (spec.md section 9(b)): a table of
// function values indexed by State, populated by each handlers_*.go
// file's init(). States with bespoke drive-loop behavior (TUNNEL,
// FINISH, ERROR) are special cased in Parse itself rather than
// occupying a table slot.
var stateHandlers [int(StateComplete) + 1]stateHandler

func registerHandler(s State, h stateHandler) {
	stateHandlers[s] = h
}

// Parse feeds buf to the parser (spec.md section 6). It returns the
// number of bytes of buf that were consumed (consumed <= len(buf)) and
// any terminal error. A return of (n, nil) with n < len(buf) and
// Paused() true means the caller should call Resume and re-present
// buf[n:]. With ManageUnconsumed true and no error, pause or tunnel,
// n == len(buf): bytes not yet scanned are kept by the parser and
// prepended to the next call's input. With ManageUnconsumed false, the
// caller re-presents buf[n:] itself.
func (p *Parser) Parse(buf []byte) (int, *ParseError) {
	if p.paused {
		return 0, p.Error()
	}
	if p.state == StateError {
		return 0, p.Error()
	}

	oldTailLen := len(p.tail)
	if oldTailLen == 0 {
		p.work = buf
	} else {
		// A field was mid-flight at the previous call's boundary: fold
		// the saved tail and the new bytes into one working buffer so
		// state handlers can re-scan the whole pending token from its
		// start, exactly as spec.md section 9 prescribes ("prefer an
		// owned contiguous byte buffer attached to the parser").
		p.work = append(append([]byte(nil), p.tail...), buf...)
	}
	p.pos = 0
	work := p.work

	// HEADERS, CRLF_AFTER_LAST_CHUNK and COMPLETE read no input, so they
	// also run once the buffer is exhausted.
	for p.pos < len(work) || p.state == StateHeaders || p.state == StateCRLFAfterLastChunk || p.state == StateComplete {
		switch p.state {
		case StateError:
			goto doneLoop
		case StateFinish:
			p.fail(ErrUnexpectedData, "data received after the message was finished")
			goto doneLoop
		case StateTunnel:
			// Tunnel mode ignores all further bytes of the stream
			// unconditionally (spec.md section 4.3, "Tunnel").
			goto doneLoop
		}

		{
			h := stateHandlers[p.state]
			if h == nil {
				p.fail(ErrUnexpectedCharacter, "no handler registered for state "+p.state.String())
				goto doneLoop
			}
			adv := h(p, work[p.pos:])
			if p.state == StateError {
				goto doneLoop
			}
			if adv < 0 {
				goto doneLoop // suspend: wait for more input
			}
			p.pos += adv
			if p.paused {
				goto doneLoop
			}
		}
	}
doneLoop:

	consumedFromArg := p.pos - oldTailLen
	if consumedFromArg < 0 {
		consumedFromArg = 0
	}
	if consumedFromArg > len(buf) {
		consumedFromArg = len(buf)
	}

	switch {
	case !p.manageUnconsumed || p.state == StateError || p.state == StateTunnel || p.pos >= len(work):
		p.tail = nil
	case p.paused:
		// The caller re-presents buf[consumedFromArg:] after Resume; only
		// the unscanned rest of the previous tail stays with the parser.
		p.tail = nil
		if p.pos < oldTailLen {
			p.tail = append([]byte(nil), work[p.pos:oldTailLen]...)
		}
	default:
		p.tail = append([]byte(nil), work[p.pos:]...)
		consumedFromArg = len(buf)
	}
	p.parsed += int64(consumedFromArg)

	return consumedFromArg, p.Error()
}
