package telnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/irhvac-core/internal/hvac"
)

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Errors returned by the server lifecycle.
var (
	// ErrAlreadyRunning is returned when Start is called on a running server.
	ErrAlreadyRunning = errors.New("telnet: server already running")
)

// Config holds the line-protocol server settings.
type Config struct {
	// Host is the listen address.
	Host string

	// Port is the listen port.
	Port int

	// MaxSessions bounds the session slot table. Connections beyond the
	// bound are rejected, not queued.
	MaxSessions int

	// MaxLineBytes bounds a single inbound line. An overlong line is
	// discarded whole and the buffer reset.
	MaxLineBytes int

	// IdleTimeout closes a session that has sent nothing for this long.
	// Zero disables the timeout.
	IdleTimeout time.Duration
}

// Server is the line-oriented command front-end: it owns the session
// slot table, frames inbound bytes into JSON command lines for the
// engine, and broadcasts state snapshots back out.
//
// Server implements hvac.Notifier so it can be registered directly as
// a state-change fan-out target.
type Server struct {
	config Config
	engine *hvac.Engine
	logger Logger

	mu       sync.Mutex
	listener net.Listener
	sessions []*session
	nextID   int
	wg       sync.WaitGroup
}

// session is one connected client occupying a slot.
type session struct {
	id   string
	slot int
	conn net.Conn

	writeMu sync.Mutex
	closed  bool
}

// NewServer creates a telnet command server over the given engine.
func NewServer(cfg Config, engine *hvac.Engine) *Server {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 4
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 4096
	}
	return &Server{
		config:   cfg,
		engine:   engine,
		logger:   noopLogger{},
		sessions: make([]*session, cfg.MaxSessions),
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Start begins listening and serving sessions. It returns once the
// listener is bound; sessions are served until ctx is cancelled or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("telnet server listening", "addr", addr, "max_sessions", s.config.MaxSessions)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

// Stop closes the listener and every connected session.
func (s *Server) Stop() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess != nil {
			sessions = append(sessions, sess)
		}
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close() //nolint:errcheck // Best effort shutdown
	}
	for _, sess := range sessions {
		sess.close()
	}
	s.wg.Wait()
}

// Addr returns the bound listener address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Listener closed on shutdown.
			return
		}

		sess, ok := s.claimSlot(conn)
		if !ok {
			s.logger.Warn("session table full, rejecting connection", "remote", conn.RemoteAddr())
			conn.Close() //nolint:errcheck // Rejection path
			continue
		}

		s.logger.Info("session connected", "id", sess.id, "slot", sess.slot, "remote", conn.RemoteAddr())

		// Eager catch-up: one snapshot line per device, in registry
		// order, before any command from this session is read.
		for _, snap := range s.engine.Snapshots() {
			sess.writeJSON(snap, s.logger)
		}

		s.wg.Add(1)
		go s.serveSession(sess)
	}
}

// claimSlot assigns the lowest free slot, reclaiming slots whose
// sessions have since disconnected. Reclamation happens here, on the
// accept path, not synchronously at disconnect or broadcast time.
func (s *Server) claimSlot(conn net.Conn) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for slot, existing := range s.sessions {
		if existing != nil && !existing.isClosed() {
			continue
		}
		s.nextID++
		sess := &session{
			id:   fmt.Sprintf("session-%d", s.nextID),
			slot: slot,
			conn: conn,
		}
		s.sessions[slot] = sess
		return sess, true
	}
	return nil, false
}

// serveSession frames inbound bytes into lines and feeds them to the
// engine. Carriage returns are discarded, newlines terminate a line,
// empty lines are skipped. An overlong line is dropped whole.
func (s *Server) serveSession(sess *session) {
	defer s.wg.Done()
	defer func() {
		sess.close()
		s.logger.Info("session disconnected", "id", sess.id, "slot", sess.slot)
	}()

	buf := make([]byte, 0, 256)
	overflow := false
	chunk := make([]byte, 512)

	for {
		if s.config.IdleTimeout > 0 {
			if err := sess.conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout)); err != nil {
				return
			}
		}

		n, err := sess.conn.Read(chunk)
		for _, b := range chunk[:n] {
			switch b {
			case '\r':
				// Discarded.
			case '\n':
				if overflow {
					overflow = false
					s.logger.Warn("line dropped, exceeds limit", "id", sess.id, "limit", s.config.MaxLineBytes)
				} else if len(buf) > 0 {
					s.handleLine(sess, buf)
				}
				buf = buf[:0]
			default:
				if overflow {
					continue
				}
				if len(buf) >= s.config.MaxLineBytes {
					overflow = true
					buf = buf[:0]
					continue
				}
				buf = append(buf, b)
			}
		}
		if err != nil {
			return
		}
	}
}

// handleLine parses and executes one complete command line.
func (s *Server) handleLine(sess *session, line []byte) {
	cmd, err := hvac.ParseCommand(line)
	if err != nil {
		s.logger.Debug("unparseable line", "id", sess.id, "error", err)
		sess.writeJSON(hvac.ErrorResponse{Error: hvac.ReasonInvalidJSON}, s.logger)
		return
	}

	resp := s.engine.Execute(cmd, sess.id)
	sess.writeJSON(resp, s.logger)
}

// NotifyState implements hvac.Notifier: it pushes the snapshot to every
// connected session except the one that originated the change.
func (s *Server) NotifyState(snapshot hvac.Snapshot, origin string) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess != nil && !sess.isClosed() && sess.id != origin {
			sessions = append(sessions, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.writeJSON(snapshot, s.logger)
	}
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, sess := range s.sessions {
		if sess != nil && !sess.isClosed() {
			count++
		}
	}
	return count
}

// writeJSON serialises v as exactly one newline-terminated line. Write
// failures mark the session closed; its slot is reclaimed on the next
// accept pass.
func (sess *session) writeJSON(v any, logger Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("marshalling response", "id", sess.id, "error", err)
		return
	}
	data = append(data, '\n')

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if sess.closed {
		return
	}
	if _, err := sess.conn.Write(data); err != nil {
		sess.closed = true
	}
}

func (sess *session) close() {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true
	sess.conn.Close() //nolint:errcheck // Best effort teardown
}

func (sess *session) isClosed() bool {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	return sess.closed
}
