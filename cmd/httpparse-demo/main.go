// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command httpparse-demo is a minimal TCP server that drives the
// httpparse state machine directly over raw connections (rather than
// net/http), to exercise the library end to end: request-line parsing,
// framing decisions, and the WebSocket upgrade tunnel path.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/teascale/httpparse"
	"github.com/teascale/httpparse/internal/diag"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "httpparse_demo_requests_total",
		Help: "Requests parsed, by outcome.",
	}, []string{"outcome"})
	upgradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "httpparse_demo_upgrades_total",
		Help: "Connections that entered the WebSocket tunnel path.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, upgradesTotal)
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "raw TCP listen address for the demo parser")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:9090", "Prometheus /metrics listen address")
	flag.Parse()

	log := diag.Default()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("listen failed")
	}
	log.Info().Str("addr", *addr).Msg("httpparse-demo listening")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Close()
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			g.Go(func() error {
				handleConn(gctx, conn, log)
				return nil
			})
		}
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("httpparse-demo stopped")
	}
}

var upgrader = websocket.Upgrader{}

// handleConn drives the parser over a single raw connection, reading
// whatever the kernel hands back and feeding it straight to Parse: this
// is the resumable-across-reads contract spec.md section 5 describes.
// Request-line and header callbacks rebuild the *http.Request gorilla's
// Upgrader expects, so an Upgrade request handed off by httpparse (spec.md
// section 4.3, Tunnel) completes a real WebSocket handshake rather than
// just being logged and dropped.
func handleConn(ctx context.Context, conn net.Conn, log zerolog.Logger) {
	_ = ctx
	defer conn.Close()

	p := httpparse.New(httpparse.Config{Mode: httpparse.Request, ManageUnconsumed: true})

	var (
		upgrade    bool
		method     string
		path       string
		header     = make(http.Header)
		headerName string
	)
	p.SetCallbacks(httpparse.Callbacks{
		OnMethod: func(p *httpparse.Parser, offset, length int) int {
			method = string(p.Bytes(offset, length))
			return 0
		},
		OnURL: func(p *httpparse.Parser, offset, length int) int {
			path = string(p.Bytes(offset, length))
			return 0
		},
		OnHeaderName: func(p *httpparse.Parser, offset, length int) int {
			headerName = string(p.Bytes(offset, length))
			return 0
		},
		OnHeaderValue: func(p *httpparse.Parser, offset, length int) int {
			if headerName != "" {
				header.Add(headerName, string(p.Bytes(offset, length)))
			}
			return 0
		},
		OnUpgrade: func(p *httpparse.Parser, offset, length int) int {
			upgrade = true
			return 0
		},
		OnMessageComplete: func(p *httpparse.Parser, offset, length int) int {
			requestsTotal.WithLabelValues("ok").Inc()
			return 0
		},
	})

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			rest := buf[:n]
			for len(rest) > 0 {
				consumed, perr := p.Parse(rest)
				if perr != nil {
					requestsTotal.WithLabelValues("error").Inc()
					diag.ParserFields(log.Warn(), p.State().String(), p.Parsed(), p.ID()).Err(perr).Msg("parse failed")
					return
				}
				rest = rest[consumed:]
				if upgrade {
					upgradesTotal.Inc()
					diag.ParserFields(log.Info(), p.State().String(), p.Parsed(), p.ID()).Msg("entered websocket tunnel")
					completeWebSocketUpgrade(conn, log, method, path, header)
					return
				}
				if consumed == 0 {
					break
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// hijackWriter is the minimal http.ResponseWriter/http.Hijacker pair
// gorilla/websocket's Upgrader needs to take over an already-accepted
// net.Conn; httpparse's raw-socket path never goes through net/http, so
// there is no real ResponseWriter to hand it.
type hijackWriter struct {
	conn net.Conn
	hdr  http.Header
}

func (w *hijackWriter) Header() http.Header         { return w.hdr }
func (w *hijackWriter) Write(b []byte) (int, error)  { return w.conn.Write(b) }
func (w *hijackWriter) WriteHeader(statusCode int)  {}
func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw := bufio.NewReadWriter(bufio.NewReader(w.conn), bufio.NewWriter(w.conn))
	return w.conn, rw, nil
}

// completeWebSocketUpgrade finishes the handshake with gorilla/websocket
// using the request line and headers httpparse already parsed, then runs
// a trivial echo loop to prove the tunnel is live.
func completeWebSocketUpgrade(conn net.Conn, log zerolog.Logger, method, path string, header http.Header) {
	u, err := url.ParseRequestURI(path)
	if err != nil {
		u = &url.URL{Path: path}
	}
	req := &http.Request{
		Method: method,
		URL:    u,
		Proto:  "HTTP/1.1",
		Header: header,
	}
	wr := &hijackWriter{conn: conn, hdr: make(http.Header)}
	ws, err := upgrader.Upgrade(wr, req, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket handshake failed")
		return
	}
	defer ws.Close()

	for {
		mt, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if err := ws.WriteMessage(mt, msg); err != nil {
			return
		}
	}
}
