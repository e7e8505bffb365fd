// Package grouplog implements the replicated, append-only group/capability
// log (spec.md §3 Replicated group log, §4.2.6, §6).
package grouplog

import (
	"encoding/json"
	"fmt"

	"github.com/fanzynoodle/slopmud/internal/idseq"
)

// GroupKind is the kind of a group (spec.md §3).
type GroupKind string

const (
	KindAdmin  GroupKind = "admin"
	KindGuild  GroupKind = "guild"
	KindCustom GroupKind = "custom"
	KindClass  GroupKind = "class" // Class field holds the class name
)

// EntryType discriminates GroupLogEntry variants.
type EntryType string

const (
	EntryGroupCreate      EntryType = "GroupCreate"
	EntryGroupMemberSet   EntryType = "GroupMemberSet"
	EntryGroupPolicySet   EntryType = "GroupPolicySet"
	EntryGroupRoleCapsSet EntryType = "GroupRoleCapsSet"
)

// Entry is a tagged union over the four group log entry variants. Only the
// fields relevant to Type are populated; json omits unset pointer fields.
type Entry struct {
	Type EntryType `json:"type"`

	GroupID idseq.GroupID `json:"group_id"`

	// GroupCreate
	Kind GroupKind `json:"kind,omitempty"`
	Name string    `json:"name,omitempty"`

	// GroupMemberSet
	Member string  `json:"member,omitempty"`
	Role   *string `json:"role,omitempty"` // nil ⇒ remove

	// GroupPolicySet
	Key   string  `json:"key,omitempty"`
	Value *string `json:"value,omitempty"` // nil ⇒ delete

	// GroupRoleCapsSet
	RoleName string   `json:"role_name,omitempty"`
	Caps     []string `json:"caps,omitempty"`
}

// Envelope is one record of the replicated log (spec.md §3, §6).
type Envelope struct {
	Index uint64 `json:"index"`
	TSMs  int64  `json:"ts_ms"`
	Entry Entry  `json:"entry"`
}

func (e Envelope) marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal group log envelope: %w", err)
	}
	return b, nil
}
