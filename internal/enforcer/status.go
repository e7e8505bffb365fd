package enforcer

import (
	"context"

	"go.uber.org/zap"
)

// reportStatusTask drains debounce, whose only contract is "something in
// state may have changed," and sends an EnforcementStatus to the admin
// socket at most once per distinct value of the six-field dedupe tuple
// (spec.md §4.4.3). Repeated signals that don't change the tuple are
// coalesced into silence, not repeated reports.
func reportStatusTask(ctx context.Context, sockPath string, s *state, debounce <-chan struct{}, log *zap.Logger) error {
	var last statusSnapshot
	haveLast := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-debounce:
		}

		cur := s.snapshot()
		if haveLast && cur == last {
			continue
		}

		status := s.toEnforcementStatus()
		if err := reportEnforcementStatus(ctx, sockPath, status); err != nil {
			log.Warn("status report failed", zap.Error(err))
			continue
		}
		last = cur
		haveLast = true
	}
}
