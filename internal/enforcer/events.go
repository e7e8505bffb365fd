package enforcer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

type eventsTaskConfig struct {
	sockPath      string
	applySnapshot bool
	report        func(ctx context.Context, r BanApplyResult) error
	log           *zap.Logger
}

const eventsReconnectBackoff = 2 * time.Second

// eventsTask holds a long-lived subscription to the events UNIX socket,
// applying each pushed envelope to desired_bans/applied_bans (spec.md
// §4.4.2) and reconnecting with a fixed backoff on any socket error.
func eventsTask(ctx context.Context, cfg eventsTaskConfig, s *state, debounce chan<- struct{}) error {
	for {
		err := subscribeOnce(ctx, cfg, s, debounce)

		s.mu.Lock()
		s.eventsConnected = false
		if err != nil {
			s.eventsLastError = err.Error()
		}
		s.mu.Unlock()
		nonBlockingSignal(debounce)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		cfg.log.Warn("events subscription dropped; reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(eventsReconnectBackoff):
		}
	}
}

func subscribeOnce(ctx context.Context, cfg eventsTaskConfig, s *state, debounce chan<- struct{}) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", cfg.sockPath)
	if err != nil {
		return fmt.Errorf("dial events socket: %w", err)
	}
	defer conn.Close()

	mode := subscribeTail
	if cfg.applySnapshot {
		mode = subscribeSnapshot
	}
	line, err := json.Marshal(eventsReq{Type: "subscribe", Mode: mode})
	if err != nil {
		return fmt.Errorf("encode subscribe request: %w", err)
	}
	line = append(line, '\n')
	if _, err := conn.Write(line); err != nil {
		return fmt.Errorf("write subscribe request: %w", err)
	}

	s.mu.Lock()
	s.eventsConnected = true
	s.eventsLastError = ""
	s.mu.Unlock()
	nonBlockingSignal(debounce)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		var env eventEnvelope
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			cfg.log.Warn("malformed event envelope; skipping", zap.Error(err))
			continue
		}
		applyEnvelope(ctx, cfg, s, env)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read events socket: %w", err)
	}
	return fmt.Errorf("events socket closed by peer")
}

// applyEnvelope updates desired_bans/applied_bans for one pushed event
// and reports the outcome to the admin socket (spec.md §4.4.2's event
// kind table). events_last_index only ever advances (invariant 4): an
// out-of-order or duplicate index is applied but never moves the index
// backwards.
func applyEnvelope(ctx context.Context, cfg eventsTaskConfig, s *state, env eventEnvelope) {
	s.mu.Lock()
	if env.Index > s.eventsLastIndex {
		s.eventsLastIndex = env.Index
	}

	var op string
	var deletedReport *BanApplyResult
	switch env.Event.Type {
	case eventSnapshot:
		s.desiredBans = make(map[string]BanEntry, len(env.Event.Bans))
		for _, b := range env.Event.Bans {
			s.desiredBans[b.BanID] = b
		}
		op = "sync"
	case eventBanUpserted:
		if env.Event.Entry != nil {
			s.desiredBans[env.Event.Entry.BanID] = *env.Event.Entry
		}
		op = "upsert"
	case eventBanDeleted:
		_, wasApplied := s.appliedBans[env.Event.BanID]
		delete(s.desiredBans, env.Event.BanID)
		delete(s.appliedBans, env.Event.BanID)
		op = "delete"
		if wasApplied {
			deletedReport = &BanApplyResult{
				NodeID: s.nodeID, BanID: env.Event.BanID, Op: op, Result: "ok", ReportedAtUnix: nowUnix(),
			}
		}
	default:
		s.mu.Unlock()
		cfg.log.Warn("unknown event kind; ignoring", zap.String("kind", env.Event.Type))
		return
	}

	results := reconcileLocked(s, op)
	if deletedReport != nil {
		results = append(results, *deletedReport)
	}
	s.mu.Unlock()

	for _, r := range results {
		if err := cfg.report(ctx, r); err != nil {
			cfg.log.Warn("ban apply report failed", zap.String("ban_id", r.BanID), zap.Error(err))
		}
	}
}
