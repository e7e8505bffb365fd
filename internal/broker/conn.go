package broker

import (
	"bytes"
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/wire"
)

// clientConn is one client socket: the onboarding state machine plus, once
// InWorld, verbatim INPUT passthrough to the shard (spec.md §4.3).
// Network I/O mirrors the teacher's Session: a dedicated writer goroutine
// drains outQueue while the read loop (this goroutine) never blocks on
// the network.
type clientConn struct {
	sess wire.SessionID
	conn net.Conn
	srv  *Server
	log  *zap.Logger

	accounts *Accounts
	locale   string

	state State
	build build

	passwordEchoDisabled bool
	attachReady          bool
	attached             bool
	bye                  bool

	outQueue chan []byte
	closeCh  chan struct{}
}

func newClientConn(conn net.Conn, srv *Server) *clientConn {
	sess := wire.NewSessionID()
	return &clientConn{
		sess:     sess,
		conn:     conn,
		srv:      srv,
		log:      srv.log.With(zap.String("session", sess.Short())),
		accounts: srv.accounts,
		locale:   canonicalLocale(srv.cfg.Locale),
		state:    NeedName,
		outQueue: make(chan []byte, 64),
		closeCh:  make(chan struct{}),
	}
}

func (c *clientConn) now() int64 { return time.Now().Unix() }

// send queues bytes for the writer goroutine. Backpressure beyond the
// queue's capacity disconnects the client, the same discipline the
// teacher's Session.Send uses for its OutQueue.
func (c *clientConn) send(s string) {
	select {
	case c.outQueue <- []byte(s):
	default:
		c.log.Warn("output queue full; disconnecting slow client")
		c.close()
	}
}

func (c *clientConn) setPasswordEcho(disabled bool) {
	if disabled {
		c.passwordEchoDisabled = true
		c.send(string(telnetWillEcho()))
		return
	}
	if c.passwordEchoDisabled {
		c.passwordEchoDisabled = false
		c.send(string(telnetWontEcho()))
	}
}

func (c *clientConn) mintAuthIfConfigured() error {
	if c.build.auth != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	token, err := mintSessionToken(ctx, c.srv.cfg, c.build.name)
	if err != nil {
		c.log.Warn("oidc token mint failed", zap.Error(err))
		return err
	}
	c.build.auth = token
	return nil
}

func (c *clientConn) close() {
	select {
	case <-c.closeCh:
	default:
		close(c.closeCh)
		c.conn.Close()
		if c.attached {
			c.attached = false
			c.srv.shard.sendDetach(c.sess)
			c.srv.detachSession(c.sess)
		}
	}
}

// run owns the connection for its lifetime: a writer goroutine plus a
// blocking read loop that pops lines, strips telnet IAC, and dispatches
// either to the onboarding state machine or to in-world passthrough.
func (c *clientConn) run() {
	defer c.close()

	go c.writeLoop()

	c.send("slopmud (alpha)\r\ncharacter creation (step 1/7)\r\nname: ")

	var buf bytes.Buffer
	readBuf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(readBuf)
		if err != nil {
			break
		}
		buf.Write(stripIAC(readBuf[:n]))

		for {
			line, rest, ok := popLine(buf.Bytes())
			if !ok {
				break
			}
			buf.Reset()
			buf.Write(rest)

			if len(line) == 0 {
				continue
			}
			c.handleLine(line)
			if c.bye {
				return
			}
		}
	}
}

func (c *clientConn) handleLine(line []byte) {
	if c.state != InWorld {
		c.step(line)
		if c.attachReady {
			c.attachReady = false
			c.srv.attachSession(c)
		}
		return
	}
	c.handleInWorldLine(string(line))
}

func (c *clientConn) writeLoop() {
	for {
		select {
		case b := <-c.outQueue:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := c.conn.Write(b); err != nil {
				c.close()
				return
			}
		case <-c.closeCh:
			return
		}
	}
}
