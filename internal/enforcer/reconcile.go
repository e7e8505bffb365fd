package enforcer

// reconcileLocked recomputes applied_bans from desired_bans against the
// current enforcement mode, exempt prefixes, and expiry (spec.md §4.4.1,
// §4.4.2, invariant 5). Callers must hold s.mu. It returns one
// BanApplyResult per desired ban that it newly applies, drops from
// applied_bans, or leaves unapplied (an unapplied ban is reported as
// skipped on every call); a ban that stays applied yields none. The caller
// reports the results to the admin socket outside the lock.
func reconcileLocked(s *state, op string) []BanApplyResult {
	var results []BanApplyResult
	now := nowUnix()
	enforcing := s.isEnforcing()

	for id, ban := range s.desiredBans {
		_, wasApplied := s.appliedBans[id]

		shouldApply := enforcing && !ban.expired(now)
		skipReason := ""
		if shouldApply {
			if prefix, exempt := s.exempt.MatchingPrefix(ban.Key); exempt {
				shouldApply = false
				skipReason = "exempt_prefix"
				_ = prefix
			}
		} else if ban.expired(now) {
			skipReason = "expired"
		} else {
			skipReason = "fail_open"
		}

		switch {
		case shouldApply && !wasApplied:
			s.appliedBans[id] = ban
			results = append(results, BanApplyResult{
				NodeID: s.nodeID, BanID: id, Op: op, Result: "ok", ReportedAtUnix: now,
			})
		case !shouldApply && wasApplied:
			delete(s.appliedBans, id)
			results = append(results, BanApplyResult{
				NodeID: s.nodeID, BanID: id, Op: op, Result: "skipped", Error: skipReason, ReportedAtUnix: now,
			})
		case !shouldApply && !wasApplied:
			// a ban that does not qualify is reported as skipped on every
			// call, including one that was never applied (boundary scenario:
			// a mode transition to enforcing surfaces an exempt-prefix ban
			// that was sitting in desired_bans all along).
			results = append(results, BanApplyResult{
				NodeID: s.nodeID, BanID: id, Op: op, Result: "skipped", Error: skipReason, ReportedAtUnix: now,
			})
		}
	}

	// Bans that were applied but have since been deleted from desired_bans
	// entirely (events.go deletes the desired_bans entry itself, so this
	// loop only needs to drop the stale applied_bans mirror).
	for id := range s.appliedBans {
		if _, ok := s.desiredBans[id]; !ok {
			delete(s.appliedBans, id)
		}
	}

	return results
}

// clearAppliedBansLocked drops every applied ban with no BanApplyResult
// reporting (spec.md §4.4.1: "on transition out of enforcing, it clears
// applied_bans and emits no per-ban results"). Callers must hold s.mu.
func clearAppliedBansLocked(s *state) {
	for id := range s.appliedBans {
		delete(s.appliedBans, id)
	}
}
