// Package enforcer implements the policy enforcer daemon (spec.md §4.4): a
// DNS-gated mode controller, a ban-event subscriber, a desired/applied ban
// reconciler, and a debounced status reporter, fronted by a read-only
// status HTTP server.
//
// Grounded on the original Rust daemon
// (_examples/original_source/apps/sbc_enforcerd/src/main.rs): SharedState,
// dns_check_value, dns_task/events_task/report_status_task, and the
// status_server handler are all translated here, one file per concern in
// the teacher's package-per-file idiom.
package enforcer

import "time"

// BanEntry is one entry in the authoritative desired-ban set, pushed by
// the control plane's event feed (spec.md §4.4.2).
type BanEntry struct {
	BanID         string `json:"ban_id"`
	Key           string `json:"key"`
	ExpiresAtUnix int64  `json:"expires_at_unix"`
}

func (b BanEntry) expired(nowUnix int64) bool {
	return b.ExpiresAtUnix != 0 && b.ExpiresAtUnix <= nowUnix
}

// BanApplyResult is the per-ban outcome reported back to the admin socket
// whenever desired_bans or applied_bans changes (spec.md §4.4.1, §4.4.2).
type BanApplyResult struct {
	NodeID         string `json:"node_id"`
	BanID          string `json:"ban_id"`
	Op             string `json:"op"` // "sync" | "upsert" | "delete"
	Result         string `json:"result"` // "ok" | "skipped"
	Error          string `json:"error,omitempty"`
	ReportedAtUnix int64  `json:"reported_at_unix"`
}

// EnforcementStatus is the debounced status snapshot sent to the admin
// socket (spec.md §4.4.3).
type EnforcementStatus struct {
	NodeID           string `json:"node_id"`
	DNSName          string `json:"dns_name"`
	DNSEnabled       bool   `json:"dns_enabled"`
	DNSLastError     string `json:"dns_last_error,omitempty"`
	Backend          string `json:"backend"`
	BackendAttached  bool   `json:"backend_attached"`
	EnforcementMode  string `json:"enforcement_mode"`
	ReportedAtUnix   int64  `json:"reported_at_unix"`
}

// adminReq is a newline-delimited JSON request sent to the admin UNIX
// socket (spec.md §6): "report_enforcement_status" carries Status,
// "report_ban_apply_result" carries Report.
type adminReq struct {
	Type   string             `json:"type"`
	Status *EnforcementStatus `json:"status,omitempty"`
	Report *BanApplyResult    `json:"report,omitempty"`
}

// adminResp is the admin socket's newline-delimited JSON reply.
type adminResp struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// subscribeMode selects whether the events socket replays the current ban
// snapshot before tailing, or tails only (spec.md §4.4.2).
type subscribeMode string

const (
	subscribeSnapshot subscribeMode = "snapshot"
	subscribeTail     subscribeMode = "tail"
)

// eventsReq is the one-shot subscribe request sent on connecting to the
// events UNIX socket.
type eventsReq struct {
	Type string        `json:"type"`
	Mode subscribeMode `json:"mode"`
}

// eventEnvelope is one newline-delimited push from the events socket
// (spec.md §6 "{index: u64, event: …}"). event.Type discriminates the
// payload the same way adminReq.Type does.
type eventEnvelope struct {
	Index uint64      `json:"index"`
	Event eventPayload `json:"event"`
}

type eventPayload struct {
	Type  string     `json:"type"`
	Bans  []BanEntry `json:"bans,omitempty"`
	Entry *BanEntry  `json:"entry,omitempty"`
	BanID string     `json:"ban_id,omitempty"`
}

const (
	eventSnapshot     = "snapshot"
	eventBanUpserted  = "ban_upserted"
	eventBanDeleted   = "ban_deleted"
)

func nowUnix() int64 { return time.Now().Unix() }
