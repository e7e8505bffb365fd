package broker

import (
	"net"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/config"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

func newInWorldConn(t *testing.T) *clientConn {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close(); clientSide.Close() })
	accounts, err := LoadAccounts(filepath.Join(t.TempDir(), "accounts.json"))
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	srv := &Server{
		cfg:      &config.BrokerConfig{Locale: "en"},
		log:      zap.NewNop(),
		accounts: accounts,
		sessions: make(map[wire.SessionID]*clientConn),
	}
	srv.shard = newShardManager(srv)
	c := newClientConn(serverSide, srv)
	c.state = InWorld
	c.outQueue = make(chan []byte, 8)
	return c
}

func TestHandleInWorldLineExitSetsBye(t *testing.T) {
	c := newInWorldConn(t)
	c.handleInWorldLine("exit")
	if !c.bye {
		t.Error("expected bye=true after 'exit'")
	}
}

func TestHandleInWorldLineUptimeRendersLocally(t *testing.T) {
	c := newInWorldConn(t)
	c.handleInWorldLine("uptime broker")
	select {
	case out := <-c.outQueue:
		if !strings.Contains(string(out), "broker uptime:") {
			t.Errorf("output = %q, want it to contain 'broker uptime:'", out)
		}
	default:
		t.Fatal("expected a queued uptime line")
	}
}

func TestHandleInWorldLineForwardsUnrecognizedCommandToShard(t *testing.T) {
	c := newInWorldConn(t)
	// No shard connection is configured, so forwarding must fail and the
	// caller must be told input was dropped rather than silently eaten
	// (boundary scenario S6).
	c.handleInWorldLine("look")
	select {
	case out := <-c.outQueue:
		if !strings.Contains(string(out), "shard offline") {
			t.Errorf("output = %q, want a shard-offline notice", out)
		}
	default:
		t.Fatal("expected a queued shard-offline notice")
	}
}
