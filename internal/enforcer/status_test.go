package enforcer

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestReportStatusTaskDedupesUnchangedSnapshot(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "admin.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	defer ln.Close()

	gotReq := make(chan struct{}, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				sc := bufio.NewScanner(conn)
				if sc.Scan() {
					gotReq <- struct{}{}
				}
				conn.Write([]byte(`{"type":"ok"}` + "\n"))
			}()
		}
	}()

	s := newState("node1", "gate.example.org", "10.0.0.1", "local")
	debounce := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go reportStatusTask(ctx, sockPath, s, debounce, zap.NewNop())

	waitForReq := func() {
		t.Helper()
		select {
		case <-gotReq:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for expected admin socket request")
		}
	}
	assertNoReq := func() {
		t.Helper()
		select {
		case <-gotReq:
			t.Fatal("got an unexpected admin socket request for an unchanged snapshot")
		case <-time.After(200 * time.Millisecond):
		}
	}

	// First signal: haveLast is false, so it always reports.
	debounce <- struct{}{}
	waitForReq()

	// Same snapshot signalled twice more: must not produce new requests.
	debounce <- struct{}{}
	debounce <- struct{}{}
	assertNoReq()

	// A real change must produce exactly one more report.
	s.mu.Lock()
	s.dnsEnabled = true
	s.enforcementMode = "enforcing"
	s.mu.Unlock()
	debounce <- struct{}{}
	waitForReq()
}
