package enforcer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// dnsView, enforcementView, eventsView, exemptView and appliedBansView
// mirror the original daemon's status_server JSON shape (spec.md §4.4.3
// names these as the fields an operator inspects via the read-only status
// endpoint).
type dnsView struct {
	Name        string   `json:"name"`
	ExpectedIP  string   `json:"expected_ip"`
	Enabled     bool     `json:"enabled"`
	LastError   string   `json:"last_error,omitempty"`
	LastIPs     []string `json:"last_ips,omitempty"`
	CheckedUnix int64    `json:"checked_unix"`
}

type enforcementView struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

type eventsView struct {
	Connected bool   `json:"connected"`
	LastIndex uint64 `json:"last_index"`
	LastError string `json:"last_error,omitempty"`
}

type exemptView struct {
	Loaded    bool   `json:"loaded"`
	Path      string `json:"path"`
	Count     int    `json:"count"`
	LastError string `json:"last_error,omitempty"`
}

type httpStatusView struct {
	NodeID          string             `json:"node_id"`
	Backend         string             `json:"backend"`
	BackendAttached bool               `json:"backend_attached"`
	DNS             dnsView            `json:"dns"`
	Enforcement     enforcementView    `json:"enforcement"`
	Events          eventsView         `json:"events"`
	Exempt          exemptView         `json:"exempt"`
	DesiredBans     int                `json:"desired_bans"`
	AppliedBans     map[string]BanEntry `json:"applied_bans"`
}

func buildStatusView(s *state) httpStatusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := make(map[string]BanEntry, len(s.appliedBans))
	for k, v := range s.appliedBans {
		applied[k] = v
	}

	return httpStatusView{
		NodeID:          s.nodeID,
		Backend:         s.backend,
		BackendAttached: s.backendAttached,
		DNS: dnsView{
			Name:        s.dnsName,
			ExpectedIP:  s.dnsExpectedIP,
			Enabled:     s.dnsEnabled,
			LastError:   s.dnsLastError,
			LastIPs:     s.dnsLastIPs,
			CheckedUnix: s.dnsCheckedAt,
		},
		Enforcement: enforcementView{Mode: s.enforcementMode, Reason: s.enforcementReason},
		Events: eventsView{
			Connected: s.eventsConnected,
			LastIndex: s.eventsLastIndex,
			LastError: s.eventsLastError,
		},
		Exempt: exemptView{
			Loaded:    s.exemptLoaded,
			Path:      s.exemptPath,
			Count:     len(s.exempt.prefixes),
			LastError: s.exemptLastErr,
		},
		DesiredBans: len(s.desiredBans),
		AppliedBans: applied,
	}
}

// newStatusRouter builds the read-only gin router exposing the status
// snapshot; no handler here mutates state.
func newStatusRouter(s *state) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, buildStatusView(s))
	})
	return r
}

// serveStatusHTTP runs the status server until ctx is cancelled, then
// shuts it down gracefully.
func serveStatusHTTP(ctx context.Context, addr string, s *state, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: newStatusRouter(s)}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("status server shutdown", zap.Error(err))
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
