package enforcer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fanzynoodle/slopmud/internal/config"
)

// Enforcer supervises the DNS poller, events subscriber, status
// reporter, and status HTTP server as four concurrent tasks sharing one
// mutex-guarded state (spec.md §5, §4.4). Backend is fixed to "local" —
// this implementation's only enforcement action is the desired/applied
// ban bookkeeping itself; a future backend plugging into an actual
// firewall would read applied_bans from the same state.
type Enforcer struct {
	cfg   *config.EnforcerConfig
	log   *zap.Logger
	state *state
}

func New(cfg *config.EnforcerConfig, log *zap.Logger) (*Enforcer, error) {
	exempt, err := loadExemptPrefixes(cfg.ExemptPrefixesPath)
	if err != nil {
		log.Warn("exempt prefixes load failed; continuing with an empty set", zap.Error(err))
	}

	st := newState(cfg.NodeID, cfg.DNSName, cfg.DNSExpectedIP, "local")
	st.exempt = exempt
	st.exemptLoaded = err == nil
	st.exemptPath = cfg.ExemptPrefixesPath
	if err != nil {
		st.exemptLastErr = err.Error()
	}
	st.backendAttached = true

	return &Enforcer{cfg: cfg, log: log, state: st}, nil
}

// Run blocks until ctx is cancelled or any supervised task fails, at
// which point every other task is cancelled too (errgroup.WithContext).
func (e *Enforcer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	debounce := make(chan struct{}, 1)

	g.Go(func() error {
		return dnsTask(ctx, dnsTaskConfig{
			dnsName:       e.cfg.DNSName,
			dnsExpectedIP: e.cfg.DNSExpectedIP,
			interval:      time.Duration(e.cfg.DNSIntervalS) * time.Second,
			report:        func(ctx context.Context, r BanApplyResult) error { return reportBanApply(ctx, e.cfg.AdminSock, r) },
			log:           e.log,
		}, e.state, debounce)
	})

	g.Go(func() error {
		return eventsTask(ctx, eventsTaskConfig{
			sockPath:      e.cfg.EventsSock,
			applySnapshot: e.cfg.ApplySnapshot,
			report:        func(ctx context.Context, r BanApplyResult) error { return reportBanApply(ctx, e.cfg.AdminSock, r) },
			log:           e.log,
		}, e.state, debounce)
	})

	g.Go(func() error {
		return reportStatusTask(ctx, e.cfg.AdminSock, e.state, debounce, e.log)
	})

	g.Go(func() error {
		return serveStatusHTTP(ctx, e.cfg.StatusHTTPAddr, e.state, e.log)
	})

	return g.Wait()
}
