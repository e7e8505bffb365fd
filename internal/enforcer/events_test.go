package enforcer

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func noopReport(ctx context.Context, r BanApplyResult) error { return nil }

func TestApplyEnvelopeEventsLastIndexNonDecreasing(t *testing.T) {
	s := newState("node1", "", "", "local")
	cfg := eventsTaskConfig{report: noopReport, log: zap.NewNop()}

	indexes := []uint64{1, 5, 3, 5, 9, 2}
	var lastSeen uint64
	for i, idx := range indexes {
		env := eventEnvelope{Index: idx, Event: eventPayload{Type: eventBanUpserted, Entry: &BanEntry{BanID: "b", Key: "cidr:198.51.100.0/24"}}}
		applyEnvelope(context.Background(), cfg, s, env)

		s.mu.Lock()
		cur := s.eventsLastIndex
		s.mu.Unlock()

		if cur < lastSeen {
			t.Fatalf("step %d: events_last_index went backwards: %d -> %d", i, lastSeen, cur)
		}
		lastSeen = cur
	}
	if lastSeen != 9 {
		t.Errorf("events_last_index = %d, want 9 (the max seen)", lastSeen)
	}
}

func TestApplyEnvelopeSnapshotReplacesDesiredBans(t *testing.T) {
	s := newState("node1", "", "", "local")
	cfg := eventsTaskConfig{report: noopReport, log: zap.NewNop()}

	s.desiredBans["stale"] = BanEntry{BanID: "stale", Key: "cidr:192.0.2.0/24"}

	env := eventEnvelope{Index: 1, Event: eventPayload{
		Type: eventSnapshot,
		Bans: []BanEntry{{BanID: "fresh", Key: "cidr:198.51.100.0/24"}},
	}}
	applyEnvelope(context.Background(), cfg, s, env)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.desiredBans["stale"]; ok {
		t.Errorf("expected snapshot to replace desired_bans entirely")
	}
	if _, ok := s.desiredBans["fresh"]; !ok {
		t.Errorf("expected snapshot's ban to be present")
	}
}

func TestApplyEnvelopeDeleteReportsWhenPreviouslyApplied(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.enforcementMode = "enforcing"
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:198.51.100.0/24"}
	reconcileLocked(s, "sync")
	if _, ok := s.appliedBans["b1"]; !ok {
		t.Fatalf("setup: expected b1 applied")
	}

	var reported []BanApplyResult
	cfg := eventsTaskConfig{
		report: func(ctx context.Context, r BanApplyResult) error {
			reported = append(reported, r)
			return nil
		},
		log: zap.NewNop(),
	}
	applyEnvelope(context.Background(), cfg, s, eventEnvelope{Index: 2, Event: eventPayload{Type: eventBanDeleted, BanID: "b1"}})

	if len(reported) != 1 || reported[0].Op != "delete" || reported[0].Result != "ok" {
		t.Fatalf("reported = %+v, want exactly one delete/ok report", reported)
	}
	if _, ok := s.appliedBans["b1"]; ok {
		t.Errorf("expected b1 removed from applied_bans after delete")
	}
}
