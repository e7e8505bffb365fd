package grouplog

import (
	"strings"

	"github.com/fanzynoodle/slopmud/internal/idseq"
)

// Group is the in-memory materialization of one group (spec.md §3).
type Group struct {
	ID       idseq.GroupID
	Kind     GroupKind
	Name     string
	Class    string // populated when Kind == KindClass
	Members  map[string]string   // principal -> role
	Policies map[string]string   // key -> value
	RoleCaps map[string][]string // role -> caps
}

func newGroup(id idseq.GroupID, kind GroupKind, name string) *Group {
	return &Group{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Members:  make(map[string]string),
		Policies: make(map[string]string),
		RoleCaps: make(map[string][]string),
	}
}

// Store is the materialized group/capability store, rebuilt by replaying
// the log (spec.md invariant 3: replay must reproduce the live store).
type Store struct {
	groups map[idseq.GroupID]*Group
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{groups: make(map[idseq.GroupID]*Group)}
}

// Apply applies one log entry to the store. It is the single place that
// mutates group state, used both for live appends and for replay.
func (s *Store) Apply(e Entry) {
	switch e.Type {
	case EntryGroupCreate:
		if _, ok := s.groups[e.GroupID]; !ok {
			g := newGroup(e.GroupID, e.Kind, e.Name)
			if e.Kind == KindClass {
				g.Class = strings.TrimPrefix(e.Name, "class:")
			}
			s.groups[e.GroupID] = g
		}
	case EntryGroupMemberSet:
		g, ok := s.groups[e.GroupID]
		if !ok {
			return
		}
		if e.Role == nil {
			delete(g.Members, e.Member)
		} else {
			g.Members[e.Member] = *e.Role
		}
	case EntryGroupPolicySet:
		g, ok := s.groups[e.GroupID]
		if !ok {
			return
		}
		if e.Value == nil {
			delete(g.Policies, e.Key)
		} else {
			g.Policies[e.Key] = *e.Value
		}
	case EntryGroupRoleCapsSet:
		g, ok := s.groups[e.GroupID]
		if !ok {
			return
		}
		g.RoleCaps[e.RoleName] = append([]string(nil), e.Caps...)
	}
}

// Group returns the group with id, if it exists.
func (s *Store) Group(id idseq.GroupID) (*Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// Groups returns every group in the store.
func (s *Store) Groups() []*Group {
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out
}

// AdminAll is the capability that implies every other capability.
const AdminAll = "admin.all"

// EffectiveCaps resolves the capability set for a principal who is a
// member of groups (explicitly or via class-implied membership) and who
// additionally carries authCaps asserted by the broker's auth blob
// (spec.md §4.2.6 Capability resolution).
func (s *Store) EffectiveCaps(principal string, class string, authCaps []string) map[string]bool {
	caps := make(map[string]bool)
	for _, c := range authCaps {
		caps[c] = true
	}
	for _, g := range s.groups {
		role, isMember := g.Members[principal]
		if !isMember && g.Kind == KindClass && g.Class != "" && g.Class == class {
			isMember = true
			role = "member"
		}
		if !isMember {
			continue
		}
		for _, c := range g.RoleCaps[role] {
			caps[c] = true
		}
	}
	return caps
}

// HasCap reports whether the resolved capability set for principal grants
// cap, with admin.all implying every capability.
func HasCap(caps map[string]bool, cap string) bool {
	return caps[AdminAll] || caps[cap]
}
