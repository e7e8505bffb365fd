package enforcer

import "testing"

func TestReconcileExemptPrefixSkipsApply(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:10.0.0.0/8"}
	s.exempt = ExemptPrefixes{prefixes: []string{"cidr:10."}}

	s.enforcementMode = "enforcing"
	results := reconcileLocked(s, "sync")

	if len(results) != 1 {
		t.Fatalf("results = %+v, want exactly one report", results)
	}
	r := results[0]
	if r.Op != "sync" || r.Result != "skipped" || r.Error != "exempt_prefix" {
		t.Errorf("report = %+v, want sync/skipped/exempt_prefix", r)
	}
	if len(s.appliedBans) != 0 {
		t.Errorf("applied_bans = %+v, want empty", s.appliedBans)
	}
}

func TestReconcileAppliesNonExemptBan(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:203.0.113.0/24"}
	s.exempt = ExemptPrefixes{prefixes: []string{"cidr:10."}}
	s.enforcementMode = "enforcing"

	results := reconcileLocked(s, "sync")
	if len(results) != 1 || results[0].Result != "ok" {
		t.Fatalf("results = %+v, want one ok report", results)
	}
	if _, ok := s.appliedBans["b1"]; !ok {
		t.Errorf("expected b1 to be applied")
	}
}

func TestReconcileExpiredBanNotApplied(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:203.0.113.0/24", ExpiresAtUnix: 1}
	s.enforcementMode = "enforcing"

	results := reconcileLocked(s, "sync")
	if len(results) != 1 || results[0].Error != "expired" {
		t.Fatalf("results = %+v, want one expired-skip report", results)
	}
	if len(s.appliedBans) != 0 {
		t.Errorf("applied_bans = %+v, want empty", s.appliedBans)
	}
}

func TestReconcileFailOpenNeverApplies(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:203.0.113.0/24"}
	s.enforcementMode = "fail_open"

	reconcileLocked(s, "sync")
	if len(s.appliedBans) != 0 {
		t.Errorf("applied_bans = %+v, want empty under fail_open", s.appliedBans)
	}
}

// TestReconcileInvariantAppliedBansSubset exercises invariant 5: after any
// sequence of reconcile calls, every applied_bans entry is enforcing-at-
// insertion, not exempt, and not expired.
func TestReconcileInvariantAppliedBansSubset(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.exempt = ExemptPrefixes{prefixes: []string{"cidr:10."}}
	s.desiredBans["exempt"] = BanEntry{BanID: "exempt", Key: "cidr:10.1.2.0/24"}
	s.desiredBans["ok"] = BanEntry{BanID: "ok", Key: "cidr:198.51.100.0/24"}
	s.desiredBans["expired"] = BanEntry{BanID: "expired", Key: "cidr:203.0.113.0/24", ExpiresAtUnix: 1}

	s.enforcementMode = "enforcing"
	reconcileLocked(s, "sync")

	for id, ban := range s.appliedBans {
		if _, exempt := s.exempt.MatchingPrefix(ban.Key); exempt {
			t.Errorf("applied ban %s matches an exempt prefix", id)
		}
		if ban.expired(nowUnix()) {
			t.Errorf("applied ban %s is expired", id)
		}
	}
	if _, ok := s.appliedBans["ok"]; !ok {
		t.Errorf("expected non-exempt non-expired ban to be applied")
	}

	s.enforcementMode = "fail_open"
	reconcileLocked(s, "sync")
	if len(s.appliedBans) != 0 {
		t.Errorf("applied_bans = %+v, want empty after fail_open transition", s.appliedBans)
	}
}

// TestClearAppliedBansLockedEmitsNoResults exercises the transition-out-of-
// enforcing path that dnsTask takes instead of reconcileLocked (spec.md
// §4.4.1: "it clears applied_bans and emits no per-ban results").
func TestClearAppliedBansLockedEmitsNoResults(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:198.51.100.0/24"}
	s.enforcementMode = "enforcing"
	reconcileLocked(s, "sync")
	if _, ok := s.appliedBans["b1"]; !ok {
		t.Fatalf("setup: expected b1 applied")
	}

	s.enforcementMode = "fail_open"
	clearAppliedBansLocked(s)
	if len(s.appliedBans) != 0 {
		t.Errorf("applied_bans = %+v, want empty", s.appliedBans)
	}
}

func TestReconcileDropsAppliedBanNoLongerDesired(t *testing.T) {
	s := newState("node1", "", "", "local")
	s.desiredBans["b1"] = BanEntry{BanID: "b1", Key: "cidr:198.51.100.0/24"}
	s.enforcementMode = "enforcing"
	reconcileLocked(s, "sync")
	if _, ok := s.appliedBans["b1"]; !ok {
		t.Fatalf("setup: expected b1 applied")
	}

	delete(s.desiredBans, "b1")
	reconcileLocked(s, "delete")
	if _, ok := s.appliedBans["b1"]; ok {
		t.Errorf("expected b1 to be dropped from applied_bans once no longer desired")
	}
}
