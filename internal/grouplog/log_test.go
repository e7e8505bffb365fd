package grouplog

import (
	"path/filepath"
	"testing"
)

func fixedClock() int64 { return 1_700_000_000_000 }

func TestAppendAssignsDenseIndices(t *testing.T) {
	dir := t.TempDir()
	l, store, err := Open(filepath.Join(dir, "group.log"), fixedClock)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	idx1, err := l.Append(Entry{Type: EntryGroupCreate, GroupID: 1, Kind: KindAdmin, Name: "admins"}, fixedClock())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx1 != 1 {
		t.Fatalf("first index = %d, want 1", idx1)
	}

	role := "admin"
	idx2, err := l.Append(Entry{Type: EntryGroupMemberSet, GroupID: 1, Member: "acct:alice", Role: &role}, fixedClock())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx2 != 2 {
		t.Fatalf("second index = %d, want 2", idx2)
	}

	g, ok := store.Group(1)
	if !ok {
		t.Fatal("group 1 missing after append")
	}
	if g.Members["acct:alice"] != "admin" {
		t.Errorf("alice's role = %q, want admin", g.Members["acct:alice"])
	}
}

// Invariant 3 / Round-trip 7: replaying the log from scratch reproduces the
// live store.
func TestReplayReproducesLiveStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group.log")

	l, _, err := Open(path, fixedClock)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := l.Append(Entry{Type: EntryGroupCreate, GroupID: 1, Kind: KindAdmin, Name: "admins"}, fixedClock()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	role := "admin"
	if _, err := l.Append(Entry{Type: EntryGroupMemberSet, GroupID: 1, Member: "acct:alice", Role: &role}, fixedClock()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	l.Close()

	// Reopen and replay from scratch.
	l2, store2, err := Open(path, fixedClock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	g, ok := store2.Group(1)
	if !ok {
		t.Fatal("group 1 missing after replay")
	}
	if g.Members["acct:alice"] != "admin" {
		t.Errorf("replayed alice's role = %q, want admin", g.Members["acct:alice"])
	}
	if g.Name != "admins" {
		t.Errorf("replayed group name = %q, want admins", g.Name)
	}
}

func TestEffectiveCapsAdminAllImpliesEverything(t *testing.T) {
	store := NewStore()
	store.Apply(Entry{Type: EntryGroupCreate, GroupID: 1, Kind: KindAdmin, Name: "admins"})
	role := "super"
	store.Apply(Entry{Type: EntryGroupMemberSet, GroupID: 1, Member: "acct:alice", Role: &role})
	store.Apply(Entry{Type: EntryGroupRoleCapsSet, GroupID: 1, RoleName: "super", Caps: []string{AdminAll}})

	caps := store.EffectiveCaps("acct:alice", "", nil)
	if !HasCap(caps, "warp") {
		t.Error("admin.all should imply warp capability")
	}
	if !HasCap(caps, "anything.at.all") {
		t.Error("admin.all should imply arbitrary capabilities")
	}
}

func TestEffectiveCapsClassImpliedMembership(t *testing.T) {
	store := NewStore()
	store.Apply(Entry{Type: EntryGroupCreate, GroupID: 1000, Kind: KindClass, Name: "class:warrior"})
	store.Apply(Entry{Type: EntryGroupRoleCapsSet, GroupID: 1000, RoleName: "member", Caps: []string{"chat.warcry"}})

	caps := store.EffectiveCaps("acct:bob", "warrior", nil)
	if !HasCap(caps, "chat.warcry") {
		t.Error("class-implied membership should grant the class group's member caps")
	}

	capsWrongClass := store.EffectiveCaps("acct:carl", "mage", nil)
	if HasCap(capsWrongClass, "chat.warcry") {
		t.Error("a character of a different class should not inherit warrior caps")
	}
}
