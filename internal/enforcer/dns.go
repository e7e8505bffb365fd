package enforcer

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
)

// lookupHostFunc abstracts net.DefaultResolver.LookupHost so dnsCheck is
// testable without a live resolver.
type lookupHostFunc func(ctx context.Context, name string) ([]string, error)

func defaultLookupHost(ctx context.Context, name string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, name)
}

// dnsCheck resolves name and reports whether its resolved addresses
// include expectIP (spec.md §4.4.1). An empty name or expectIP disables
// the DNS gate outright ("dns_disabled"); a lookup failure is reported as
// "dns_error" rather than silently falling back to enforcing, since a
// transient resolver outage must never be mistaken for an intentional
// enablement signal.
func dnsCheck(ctx context.Context, lookup lookupHostFunc, name, expectIP string) (enabled bool, reason string, ips []string, lookupErr string) {
	if name == "" || expectIP == "" {
		return false, "dns_disabled", nil, ""
	}

	addrs, err := lookup(ctx, name)
	if err != nil {
		return false, "dns_error", nil, err.Error()
	}
	ips = addrs

	for _, a := range addrs {
		if a == expectIP {
			return true, "dns_enabled", ips, ""
		}
	}
	return false, "dns_disabled", ips, ""
}

// dnsTask polls dnsCheck on an interval, updates state's DNS/enforcement
// fields, and on a transition into enforcing reconciles applied_bans
// against desired_bans (spec.md §4.4.1, boundary S5); on a transition out
// of enforcing it clears applied_bans with no reports. Ban-apply reports
// are sent to the admin socket outside the lock.
func dnsTask(ctx context.Context, cfg dnsTaskConfig, s *state, debounce chan<- struct{}) error {
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	lookup := cfg.lookup
	if lookup == nil {
		lookup = defaultLookupHost
	}

	for {
		enabled, reason, ips, lookupErr := dnsCheck(ctx, lookup, cfg.dnsName, cfg.dnsExpectedIP)

		s.mu.Lock()
		prevMode := s.enforcementMode
		s.dnsEnabled = enabled
		s.dnsLastError = lookupErr
		s.dnsLastIPs = ips
		s.dnsCheckedAt = nowUnix()
		s.enforcementReason = reason
		if enabled {
			s.enforcementMode = "enforcing"
		} else {
			s.enforcementMode = "fail_open"
		}
		var reports []BanApplyResult
		switch {
		case s.enforcementMode == prevMode:
			// no transition, nothing to reconcile
		case s.enforcementMode == "enforcing":
			reports = reconcileLocked(s, "sync")
		default:
			// transition out of enforcing: clear silently, no reports (spec.md §4.4.1)
			clearAppliedBansLocked(s)
		}
		s.mu.Unlock()

		nonBlockingSignal(debounce)

		for _, r := range reports {
			if err := cfg.report(ctx, r); err != nil {
				cfg.log.Warn("ban apply report failed", zap.String("ban_id", r.BanID), zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type dnsTaskConfig struct {
	dnsName       string
	dnsExpectedIP string
	interval      time.Duration
	report        func(ctx context.Context, r BanApplyResult) error
	log           *zap.Logger
	lookup        lookupHostFunc // nil uses the real resolver
}

// nonBlockingSignal drops the signal rather than blocking if ch already
// has one queued — the reporter only needs to know "something changed",
// not how many times.
func nonBlockingSignal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
