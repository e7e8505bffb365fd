package shard

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/grouplog"
	"github.com/fanzynoodle/slopmud/internal/worlddata"
)

const testArea = `
version: 1
zone_id: newbie_school
zone_name: Newbie School
start_room: newbie_school.orientation
rooms:
  - id: newbie_school.orientation
    name: Orientation Hall
    desc: A plain hall.
    exits:
      - {dir: north, to: town.gate}
  - id: town.gate
    name: Town Gate
    desc: The town gate.
    exits:
      - {dir: south, to: newbie_school.orientation}
      - {dir: down, to: sewers.entry, gate: "gate.sewers.entry"}
  - id: sewers.entry
    name: Sewer Entrance
    desc: It smells.
    exits:
      - {dir: up, to: town.gate}
`

func newTestWorld(t *testing.T) *World {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "area.yaml"), []byte(testArea), 0o644); err != nil {
		t.Fatalf("write test area: %v", err)
	}
	rooms, err := worlddata.Load(dir)
	if err != nil {
		t.Fatalf("load test rooms: %v", err)
	}

	groupLogPath := filepath.Join(dir, "group.log")
	now := func() int64 { return 1_700_000_000_000 }
	log, store, err := grouplog.Open(groupLogPath, now)
	if err != nil {
		t.Fatalf("open group log: %v", err)
	}

	return NewWorld(Deps{
		Rooms:  rooms,
		Groups: log,
		Store:  store,
		Now:    now,
		Log:    zap.NewNop(),
	})
}

// newTestWorldWithClock is like newTestWorld but returns a setter for the
// world's monotonic clock, for tests that need to advance time across a
// scheduler drain (e.g. the boss telegraph/resolve pair).
func newTestWorldWithClock(t *testing.T) (*World, func(int64)) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "area.yaml"), []byte(testArea), 0o644); err != nil {
		t.Fatalf("write test area: %v", err)
	}
	rooms, err := worlddata.Load(dir)
	if err != nil {
		t.Fatalf("load test rooms: %v", err)
	}

	groupLogPath := filepath.Join(dir, "group.log")
	var clock int64 = 1_700_000_000_000
	now := func() int64 { return clock }
	log, store, err := grouplog.Open(groupLogPath, now)
	if err != nil {
		t.Fatalf("open group log: %v", err)
	}

	w := NewWorld(Deps{
		Rooms:  rooms,
		Groups: log,
		Store:  store,
		Now:    now,
		Log:    zap.NewNop(),
	})
	return w, func(ms int64) { clock = ms }
}
