// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command httpparse-fuzzcheck replays wire-format fixtures through the
// parser twice per file — once in a single call, once one byte at a
// time — and logs a warning if the two runs disagree on final state,
// on whether an error occurred, or on event count. This is the
// arbitrary-partitioning property spec.md section 8 requires of any
// conforming parser, run continuously against a directory of fixtures
// instead of a fixed unit-test list, so a fixture can be dropped in or
// edited without a rebuild.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/teascale/httpparse"
	"github.com/teascale/httpparse/internal/diag"
)

func main() {
	dir := flag.String("dir", "testdata/fixtures", "directory of wire-format fixtures to watch and replay")
	once := flag.Bool("once", false, "replay every fixture once and exit, instead of watching for changes")
	flag.Parse()

	log := diag.Default()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("read fixture dir")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		checkFixture(filepath.Join(*dir, e.Name()), log)
	}
	if *once {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal().Err(err).Msg("create watcher")
	}
	defer w.Close()
	if err := w.Add(*dir); err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("watch fixture dir")
	}
	log.Info().Str("dir", *dir).Msg("watching fixtures for changes")

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			checkFixture(ev.Name, log)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// modeForFixture picks Request/Response/Autodetect from a fixture's file
// name (Response if it contains "response", else Autodetect for a .rtsp
// file, else Request), since plain wire bytes carry no framing hint of
// their own.
func modeForFixture(name string) httpparse.MessageType {
	switch {
	case strings.Contains(name, "response"):
		return httpparse.Response
	case strings.HasSuffix(name, ".rtsp"):
		return httpparse.Autodetect
	default:
		return httpparse.Request
	}
}

// replayResult is what one run of a fixture produced, enough to compare
// a whole-buffer run against a byte-at-a-time run of the same bytes.
type replayResult struct {
	events    int
	state     httpparse.State
	errCode   httpparse.Error
	hasErr    bool
	consumed  int
}

func replay(data []byte, mode httpparse.MessageType, step int) replayResult {
	p := httpparse.New(httpparse.Config{Mode: mode, ManageUnconsumed: true})
	events := 0
	count := func(p *httpparse.Parser, offset, length int) int { events++; return 0 }
	p.SetCallbacks(httpparse.Callbacks{
		OnMessageStart: count, OnRequest: count, OnResponse: count,
		OnMethod: count, OnURL: count, OnProtocol: count, OnVersion: count,
		OnStatus: count, OnReason: count,
		OnHeaderName: count, OnHeaderValue: count, OnHeaders: count,
		OnUpgrade: count, OnConnect: count,
		OnData: count, OnBody: count,
		OnChunkLength: count, OnChunkExtensionName: count, OnChunkExtensionValue: count, OnChunk: count,
		OnTrailerName: count, OnTrailerValue: count, OnTrailers: count,
		OnMessageComplete: count, OnReset: count, OnFinish: count, OnError: count,
	})

	total := 0
	rest := data
	for len(rest) > 0 {
		n := step
		if n > len(rest) || n <= 0 {
			n = len(rest)
		}
		consumed, perr := p.Parse(rest[:n])
		total += consumed
		rest = rest[consumed:]
		if perr != nil {
			return replayResult{events: events, state: p.State(), errCode: perr.Code, hasErr: true, consumed: total}
		}
		if consumed == 0 {
			// no progress possible with the bytes on hand; stop rather
			// than spin, the same way a real caller would wait for more.
			break
		}
	}
	return replayResult{events: events, state: p.State(), consumed: total}
}

// checkFixture replays one fixture whole-buffer and byte-at-a-time and
// reports any divergence between the two. A fixture whose whole-buffer
// run itself errors is still replayed byte-at-a-time, so the two runs
// are compared on whether an error occurred; the error code and the
// byte count consumed are not compared.
func checkFixture(path string, log zerolog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("fixture", path).Msg("read fixture")
		return
	}
	mode := modeForFixture(path)

	whole := replay(data, mode, 0)
	partitioned := replay(data, mode, 1)

	ev := log.Info()
	if whole.events != partitioned.events || whole.state != partitioned.state || whole.hasErr != partitioned.hasErr {
		ev = log.Warn()
		ev = ev.Int("whole_events", whole.events).Int("partitioned_events", partitioned.events).
			Str("whole_state", whole.state.String()).Str("partitioned_state", partitioned.state.String())
	}
	ev.Str("fixture", path).Str("mode", modeName(mode)).Int("events", whole.events).
		Str("final_state", whole.state.String()).Bool("error", whole.hasErr).Msg("replayed fixture")
}

func modeName(m httpparse.MessageType) string {
	switch m {
	case httpparse.Request:
		return "request"
	case httpparse.Response:
		return "response"
	default:
		return "autodetect"
	}
}
