package samsung2878

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Default timeouts for port-2878 communication.
const (
	// defaultConnectTimeout is the maximum time to wait for the TLS handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultReadTimeout is the timeout for individual line reads.
	defaultReadTimeout = 10 * time.Second

	// defaultWriteTimeout is the timeout for line writes.
	defaultWriteTimeout = 5 * time.Second

	// maxLineSize bounds a single protocol line; real device frames are
	// well under 4KiB.
	maxLineSize = 64 * 1024
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Dialer opens the transport to the unit. The production implementation
// is TLSDialer; tests substitute an in-memory pipe.
type Dialer interface {
	DialContext(ctx context.Context, host string, port int) (net.Conn, error)
}

// TLSDialer dials the unit's TLS endpoint.
//
// The 2878 firmware speaks TLS 1.0 with a vendor self-signed
// certificate and expects the same vendor certificate presented by the
// client, so verification is disabled and the TLS floor is lowered.
// The link is authenticated by the account token exchange, not by the
// TLS layer.
type TLSDialer struct {
	cert tls.Certificate
}

// NewTLSDialer loads the vendor certificate and key from a combined PEM
// file and returns a dialer ready for use.
func NewTLSDialer(certFile string) (*TLSDialer, error) {
	cert, err := tls.LoadX509KeyPair(certFile, certFile)
	if err != nil {
		return nil, fmt.Errorf("%w: load certificate %q: %w", ErrConnection, certFile, err)
	}
	return &TLSDialer{cert: cert}, nil
}

// DialContext opens a TLS session to host:port.
func (d *TLSDialer) DialContext(ctx context.Context, host string, port int) (net.Conn, error) {
	tlsDialer := &tls.Dialer{
		Config: &tls.Config{
			MinVersion:         tls.VersionTLS10,
			InsecureSkipVerify: true, //nolint:gosec // firmware uses a self-signed vendor cert
			Certificates:       []tls.Certificate{d.cert},
		},
	}
	conn, err := tlsDialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s:%d: %w", ErrConnection, host, port, err)
	}
	return conn, nil
}

// Conn is a line-oriented session with a single unit.
//
// Thread Safety:
//   - All methods are safe for concurrent use; a single mutex guards
//     the underlying socket, so calls serialise.
type Conn struct {
	host   string
	port   int
	dialer Dialer

	mu            sync.Mutex
	conn          net.Conn
	reader        *bufio.Reader
	authenticated bool

	logger   Logger
	loggerMu sync.RWMutex
}

// NewConn builds an unconnected session for host:port using dialer.
func NewConn(host string, port int, dialer Dialer) *Conn {
	if port == 0 {
		port = DefaultPort
	}
	return &Conn{host: host, port: port, dialer: dialer}
}

// SetLogger sets the logger for this session.
func (c *Conn) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// Connect establishes the transport. Any previous socket is discarded
// first. The session is not usable for commands until Authenticate
// succeeds.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()

	dialCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, c.host, c.port)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	c.conn = conn
	c.reader = bufio.NewReaderSize(conn, maxLineSize)
	c.logDebug("connected", "host", c.host, "port", c.port)
	return nil
}

// Authenticate performs the token handshake.
//
// On connect the unit sends a greeting line followed by an
// InvalidateAccount line; both are consumed and logged. The client then
// presents the account token and expects a Status="Okay" response.
// Any other status, or a transport failure, leaves the session
// unauthenticated.
func (c *Conn) Authenticate(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("%w: not connected", ErrConnection)
	}
	c.authenticated = false

	greeting, err := c.readLineLocked(ctx)
	if err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: read greeting: %w", ErrAuth, err)
	}
	c.logDebug("device greeting", "line", greeting)

	invalidate, err := c.readLineLocked(ctx)
	if err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: read invalidate: %w", ErrAuth, err)
	}
	c.logDebug("device invalidate", "line", invalidate)

	if err := c.writeLineLocked(ctx, authTokenRequest(token)); err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: send token: %w", ErrAuth, err)
	}

	line, err := c.readLineLocked(ctx)
	if err != nil {
		c.teardownLocked()
		return fmt.Errorf("%w: read token response: %w", ErrAuth, err)
	}

	msg := parseMessage(line)
	if msg.status != "Okay" {
		c.teardownLocked()
		return fmt.Errorf("%w: device rejected token (status %q)", ErrAuth, msg.status)
	}

	c.authenticated = true
	c.logInfo("authenticated", "host", c.host)
	return nil
}

// Disconnect closes the session. Safe to call multiple times; close
// errors on an already-broken socket are ignored.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// Authenticated reports whether the token handshake has completed on
// the current socket.
func (c *Conn) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// ReadLine reads one CRLF-terminated protocol line.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLineLocked(ctx)
}

// WriteLine writes one protocol line, appending CRLF when missing.
func (c *Conn) WriteLine(ctx context.Context, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLineLocked(ctx, line)
}

func (c *Conn) teardownLocked() {
	c.authenticated = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

func (c *Conn) readLineLocked(ctx context.Context) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("%w: not connected", ErrConnection)
	}

	deadline := time.Now().Add(defaultReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: set read deadline: %w", ErrConnection, err)
	}

	raw, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read: %w", ErrConnection, err)
	}

	// The firmware occasionally emits bytes that are not valid UTF-8;
	// scrub rather than fail.
	line := strings.ToValidUTF8(strings.TrimRight(raw, "\r\n"), "")
	if line == "" {
		return "", fmt.Errorf("%w: empty line", ErrConnection)
	}
	return line, nil
}

func (c *Conn) writeLineLocked(ctx context.Context, line string) error {
	if c.conn == nil {
		return fmt.Errorf("%w: not connected", ErrConnection)
	}

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set write deadline: %w", ErrConnection, err)
	}

	if !strings.HasSuffix(line, "\r\n") {
		line += "\r\n"
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}
	return nil
}

func (c *Conn) logDebug(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (c *Conn) logInfo(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (c *Conn) logWarn(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (c *Conn) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
