package enforcer

import "sync"

// state is the single mutex-guarded record shared by the DNS poller,
// events subscriber, status reporter, and HTTP status handler (spec.md §5
// "enforcer: three tasks over one shared, mutex-guarded state"). No field
// is ever touched outside mu's protection — the mutex is the entire
// synchronization story, mirroring SharedState in the original daemon.
type state struct {
	mu sync.Mutex

	nodeID string

	dnsName       string
	dnsExpectedIP string
	dnsEnabled    bool
	dnsLastError  string
	dnsLastIPs    []string
	dnsCheckedAt  int64

	enforcementMode   string // "enforcing" | "fail_open"
	enforcementReason string // "dns_enabled" | "dns_disabled" | "dns_error"

	backend         string
	backendAttached bool

	eventsConnected bool
	eventsLastIndex uint64
	eventsLastError string

	desiredBans map[string]BanEntry // keyed by ban_id
	appliedBans map[string]BanEntry // keyed by ban_id; subset of desiredBans

	exempt         ExemptPrefixes
	exemptLoaded   bool
	exemptPath     string
	exemptLastErr  string
}

func newState(nodeID, dnsName, dnsExpectedIP, backend string) *state {
	return &state{
		nodeID:            nodeID,
		dnsName:           dnsName,
		dnsExpectedIP:     dnsExpectedIP,
		enforcementMode:   "fail_open",
		enforcementReason: "dns_disabled",
		backend:           backend,
		desiredBans:       make(map[string]BanEntry),
		appliedBans:       make(map[string]BanEntry),
	}
}

// snapshot returns the fields report_status_task dedupes on (spec.md
// §4.4.3): dns_enabled, dns_last_error, backend_attached,
// enforcement_mode, dns_name, backend. events_last_error is deliberately
// excluded — see DESIGN.md Open Question 2.
type statusSnapshot struct {
	dnsEnabled      bool
	dnsLastError    string
	backendAttached bool
	enforcementMode string
	dnsName         string
	backend         string
}

func (s *state) snapshot() statusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusSnapshot{
		dnsEnabled:      s.dnsEnabled,
		dnsLastError:    s.dnsLastError,
		backendAttached: s.backendAttached,
		enforcementMode: s.enforcementMode,
		dnsName:         s.dnsName,
		backend:         s.backend,
	}
}

func (s *state) toEnforcementStatus() EnforcementStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EnforcementStatus{
		NodeID:          s.nodeID,
		DNSName:         s.dnsName,
		DNSEnabled:      s.dnsEnabled,
		DNSLastError:    s.dnsLastError,
		Backend:         s.backend,
		BackendAttached: s.backendAttached,
		EnforcementMode: s.enforcementMode,
		ReportedAtUnix:  nowUnix(),
	}
}

// isEnforcing reports whether bans should be applied right now. Callers
// must already hold mu (or accept the benign race of reading it just
// after release, which callers here never do for applied_bans mutation).
func (s *state) isEnforcing() bool {
	return s.enforcementMode == "enforcing"
}
