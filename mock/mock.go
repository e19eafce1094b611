// Package mock implements a mock server for testing WebSocket and HTTP
// clients.
//
// A Server is configured with an ordered list of JSON responses. Each
// incoming request -- a WebSocket text message, an HTTP request, or a
// graphql-transport-ws subscribe -- consumes the front of the list and
// receives it as the reply. The queue is shared across messages and
// connections, so a test that knows what its client will send also knows
// exactly which response answers each request.
//
// Typical use:
//
//	host, port, err := mock.NewServer().
//		Responses(map[string]any{"hello": "world"}).
//		Start(ctx)
//
// Port 0 (the default) asks the OS for a free port; Start returns the
// port actually bound so the test can dial it.
package mock

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnectionType selects the protocol the server speaks.
type ConnectionType int

const (
	// WebSocket replays one response per received text message.
	WebSocket ConnectionType = iota
	// HTTP replays one response per request, regardless of method or
	// path.
	HTTP
	// GraphQLWS speaks the graphql-transport-ws subprotocol and replays
	// one response per subscribe message.
	GraphQLWS
)

func (t ConnectionType) String() string {
	switch t {
	case WebSocket:
		return "websocket"
	case HTTP:
		return "http"
	case GraphQLWS:
		return "graphql-ws"
	default:
		return fmt.Sprintf("ConnectionType(%d)", int(t))
	}
}

// Options configure where and how a Server listens.
type Options struct {
	Host           string
	Port           int
	ConnectionType ConnectionType
}

// DefaultOptions returns the options NewServer starts from: host
// "localhost", port 0 (OS-assigned), WebSocket.
func DefaultOptions() Options {
	return Options{
		Host:           "localhost",
		Port:           0,
		ConnectionType: WebSocket,
	}
}

// Server replays a fixed queue of JSON responses to its clients.
//
// Configure it with the chaining methods, then call Start. A Server
// must not be reconfigured after Start.
type Server struct {
	opts   Options
	queue  *responseQueue
	record *transcript
	logger *zap.Logger

	// connMu serializes WebSocket connections so that replay order over
	// the shared queue stays deterministic.
	connMu sync.Mutex

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	conns      map[*websocket.Conn]struct{}
	done       chan struct{}
	closed     bool
}

// NewServer returns an unstarted Server with DefaultOptions, an empty
// response queue, and a no-op logger.
func NewServer() *Server {
	return &Server{
		opts:   DefaultOptions(),
		queue:  &responseQueue{},
		record: &transcript{},
		logger: zap.NewNop(),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Host sets the host to bind (and to return from Start).
func (s *Server) Host(host string) *Server {
	s.opts.Host = host
	return s
}

// Port sets the port to bind; 0 lets the OS pick.
func (s *Server) Port(port int) *Server {
	s.opts.Port = port
	return s
}

// Mode sets the protocol the server speaks.
func (s *Server) Mode(connectionType ConnectionType) *Server {
	s.opts.ConnectionType = connectionType
	return s
}

// Logger sets the logger used for connection events. The default is a
// no-op logger, which is usually what a test wants.
func (s *Server) Logger(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.logger = logger
	return s
}

// Responses appends to the replay queue. Values are marshaled to JSON
// at send time, so anything json.Marshal accepts works here.
func (s *Server) Responses(responses ...interface{}) *Server {
	s.queue.push(responses...)
	return s
}

// Start binds the configured host and port and serves in the
// background. It returns the configured host and the port actually
// bound, which differs from Options.Port when that was 0.
//
// Cancelling ctx stops the server; Close does too.
func (s *Server) Start(ctx context.Context) (host string, port int, err error) {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", 0, fmt.Errorf("mock server cannot listen on %v: %w", addr, err)
	}
	port = listener.Addr().(*net.TCPAddr).Port

	httpServer := &http.Server{Handler: s.handler()}

	done := make(chan struct{})

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.done = done
	s.closed = false
	s.mu.Unlock()

	s.logger.Info("mock server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Stringer("mode", s.opts.ConnectionType))

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-done:
		}
	}()
	go func() {
		// Serve returns once Close shuts the listener down.
		_ = httpServer.Serve(listener)
	}()

	return s.opts.Host, port, nil
}

// Addr returns the address the server is bound to, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Received returns the transcript of everything clients have sent, in
// arrival order.
func (s *Server) Received() []Message {
	return s.record.all()
}

// Close stops the listener and any in-flight connections. It is safe
// to call more than once, and safe to call on a server that was never
// started.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	// Upgraded WebSocket connections are hijacked, so http.Server.Close
	// never touches them; shut them down ourselves.
	for conn := range s.conns {
		_ = conn.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	close(s.done)
	return s.httpServer.Close()
}

// track registers a hijacked connection so Close can shut it down. It
// reports false when the server is already closed, in which case the
// caller must drop the connection.
func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) handler() http.Handler {
	switch s.opts.ConnectionType {
	case HTTP:
		return http.HandlerFunc(s.serveHTTP)
	case GraphQLWS:
		return http.HandlerFunc(s.serveGraphQLWS)
	default:
		return http.HandlerFunc(s.serveWebSocket)
	}
}
