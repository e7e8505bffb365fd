package broker

import (
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/wire"
)

var errShardOffline = errors.New("shard offline")

// shardManager owns the broker's single outbound connection to the world
// shard: a dial/reconnect loop with backoff, replaying ATTACH for every
// live session on (re)connect before any INPUT is forwarded, and routing
// inbound RESP_OUTPUT/RESP_ERR frames back to the originating session
// (spec.md §5, boundary scenario S6).
type shardManager struct {
	srv *Server

	mu   sync.Mutex
	conn net.Conn
}

func newShardManager(srv *Server) *shardManager {
	return &shardManager{srv: srv}
}

// run dials the shard, replays attaches, and serves inbound frames until
// the connection drops, then backs off and retries forever.
func (m *shardManager) run() {
	for {
		conn, err := net.Dial("tcp", m.srv.cfg.ShardAddr)
		if err != nil {
			m.srv.log.Warn("shard dial failed", zap.Error(err))
			time.Sleep(m.srv.cfg.ReconnectBackoff)
			continue
		}
		m.onConnect(conn)
		m.readLoop(conn)
		m.onDisconnect()
		time.Sleep(m.srv.cfg.ReconnectBackoff)
	}
}

func (m *shardManager) onConnect(conn net.Conn) {
	m.srv.log.Info("connected to shard", zap.String("addr", m.srv.cfg.ShardAddr))
	m.srv.notifyAll("# shard connected.\r\n")

	// The replayed attaches are written under m.mu before conn is
	// published, so no INPUT frame can reach the shard ahead of them.
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.srv.conns() {
		if !c.attached {
			continue
		}
		f := wire.Frame{Type: wire.ReqAttach, SessionID: c.sess, Payload: wire.EncodeAttach(wire.AttachPayload{
			IsBot:    c.build.isBot,
			Auth:     c.build.auth,
			Race:     c.build.race,
			Class:    c.build.class,
			Sex:      c.build.sex,
			Pronouns: c.build.pronouns,
			Name:     c.build.name,
		})}
		if err := wire.WriteFrame(conn, f); err != nil {
			m.srv.log.Warn("attach replay failed", zap.String("session", c.sess.Short()), zap.Error(err))
		}
	}
	m.conn = conn
}

func (m *shardManager) onDisconnect() {
	m.mu.Lock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.conn = nil
	m.mu.Unlock()

	m.srv.log.Warn("shard disconnected; reconnecting")
	m.srv.notifyAll("# shard disconnected; reconnecting...\r\n")
}

func (m *shardManager) readLoop(conn net.Conn) {
	for {
		f, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		c, ok := m.srv.connFor(f.SessionID)
		if !ok {
			continue
		}
		switch f.Type {
		case wire.RespOutput, wire.RespErr:
			c.send(string(f.Payload))
		}
	}
}

// writeFrame serializes concurrent writers onto the single shard socket
// and reports errShardOffline while disconnected rather than blocking.
func (m *shardManager) writeFrame(f wire.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return errShardOffline
	}
	if err := wire.WriteFrame(m.conn, f); err != nil {
		m.conn.Close()
		m.conn = nil
		return err
	}
	return nil
}

func (m *shardManager) sendAttach(sess wire.SessionID, p wire.AttachPayload) {
	if err := m.writeFrame(wire.Frame{Type: wire.ReqAttach, SessionID: sess, Payload: wire.EncodeAttach(p)}); err != nil {
		m.srv.log.Warn("attach not sent; shard offline", zap.String("session", sess.Short()), zap.Error(err))
	}
}

func (m *shardManager) sendDetach(sess wire.SessionID) {
	_ = m.writeFrame(wire.Frame{Type: wire.ReqDetach, SessionID: sess})
}

// sendInput forwards line as a REQ_INPUT frame, reporting whether the
// shard accepted it. Callers reply to the caller's own session with a
// "shard offline" notice on false, per boundary scenario S6: queued
// INPUT is dropped with a per-frame reply, never silently buffered.
func (m *shardManager) sendInput(sess wire.SessionID, line string) bool {
	return m.writeFrame(wire.Frame{Type: wire.ReqInput, SessionID: sess, Payload: []byte(line)}) == nil
}
