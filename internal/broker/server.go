package broker

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/config"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// Server is the session broker: it owns the client-facing listener, the
// live session table, and the single shard-manager connection shared by
// every session (spec.md §4.3, §5).
type Server struct {
	cfg *config.BrokerConfig
	log *zap.Logger

	accounts *Accounts

	startedUnix int64

	mu       sync.Mutex
	sessions map[wire.SessionID]*clientConn

	shard *shardManager
}

// NewServer constructs a Server from cfg, loading (or creating) the
// accounts file at cfg.AccountsPath.
func NewServer(cfg *config.BrokerConfig, log *zap.Logger) (*Server, error) {
	accounts, err := LoadAccounts(cfg.AccountsPath)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		cfg:         cfg,
		log:         log,
		accounts:    accounts,
		startedUnix: time.Now().Unix(),
		sessions:    make(map[wire.SessionID]*clientConn),
	}
	srv.shard = newShardManager(srv)
	return srv, nil
}

// Serve accepts client connections on ln and runs the shard-manager loop
// until ln.Accept fails (e.g. ln is closed). One goroutine per client socket plus
// one writer goroutine per session, mirroring the teacher's
// internal/net.Server accept-loop idiom.
func (s *Server) Serve(ln net.Listener) error {
	go s.shard.run()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		c := newClientConn(conn, s)
		s.log.Info("client connected", zap.String("session", c.sess.Short()), zap.String("remote", conn.RemoteAddr().String()))
		go c.run()
	}
}

// UptimeSeconds reports how long the broker process has been serving
// connections, for the "uptime broker" passthrough interception
// (spec.md §4.3.2).
func (s *Server) UptimeSeconds() int64 {
	return time.Now().Unix() - s.startedUnix
}

// attachSession registers c in the live session table and forwards its
// accumulated onboarding fields to the shard as REQ_ATTACH. Called once
// the onboarding state machine reaches InWorld.
func (s *Server) attachSession(c *clientConn) {
	s.mu.Lock()
	s.sessions[c.sess] = c
	s.mu.Unlock()
	c.attached = true

	s.shard.sendAttach(c.sess, wire.AttachPayload{
		IsBot:    c.build.isBot,
		Auth:     c.build.auth,
		Race:     c.build.race,
		Class:    c.build.class,
		Sex:      c.build.sex,
		Pronouns: c.build.pronouns,
		Name:     c.build.name,
	})
}

// detachSession removes sess from the live session table. Called when a
// client disconnects or sends "exit"/"quit".
func (s *Server) detachSession(sess wire.SessionID) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// conns snapshots the live client connections, used both for the
// shard-manager's reconnect-replay and for broker-wide notifications.
func (s *Server) conns() []*clientConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*clientConn, 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c)
	}
	return out
}

// connFor looks up the live client connection for sess, used to route
// RESP_OUTPUT/RESP_ERR frames arriving from the shard back to the right
// socket.
func (s *Server) connFor(sess wire.SessionID) (*clientConn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[sess]
	return c, ok
}

// notifyAll queues line on every live session's output, mirroring the
// original's notify_all used for shard connect/disconnect announcements.
func (s *Server) notifyAll(line string) {
	for _, c := range s.conns() {
		c.send(line)
	}
}
