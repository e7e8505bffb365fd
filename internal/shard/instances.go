package shard

import (
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
	"github.com/fanzynoodle/slopmud/internal/worlddata"
)

// BuildPlan describes a dynamic instance to construct room-by-room
// (spec.md §4.2.5).
type BuildPlan struct {
	InstancePrefix string
	Rooms          []PlannedRoom
	StartRoom      string
	OwningParty    idseq.PartyID
}

// PlannedRoom is one room awaiting insertion.
type PlannedRoom struct {
	ID  string
	Def worlddata.Room
}

type partyBuildIDs struct {
	Plan *BuildPlan
	Next int
}

// defaultSafeRoom is the fallback room used to evacuate an instance's
// occupants before it is rebuilt.
const defaultSafeRoom = "town.gate"

// StartPartyRun evacuates any existing occupants of plan's prefix, clears
// the prior instance, and enqueues step-at-a-time construction (spec.md
// §4.2.5).
func (w *World) StartPartyRun(plan *BuildPlan, nowMs int64, evacuated func(cid idseq.CharacterID)) {
	safe := defaultSafeRoom
	if !w.Rooms.HasRoom(safe) {
		safe = w.Rooms.StartRoom()
	}

	for room, occ := range w.Occupants {
		if !hasPrefix(room, plan.InstancePrefix) {
			continue
		}
		for cid := range occ {
			if c, ok := w.Characters[cid]; ok {
				w.Vacate(room, cid)
				c.RoomID = safe
				w.Occupy(safe, cid)
				if evacuated != nil {
					evacuated(cid)
				}
			}
		}
	}

	w.Rooms.ClearDynRoomsWithPrefix(plan.InstancePrefix)
	w.Scheduler.Schedule(nowMs, scheduler.KindPartyBuildNext, partyBuildIDs{Plan: plan, Next: 0})
}

// FirePartyBuildNext pops one room off the plan and inserts it, re-
// enqueueing for the next step; when the plan empties it teleports every
// party member into start_room (spec.md §4.2.5 step 3).
func (w *World) FirePartyBuildNext(ids partyBuildIDs, nowMs int64, onComplete func(members []idseq.CharacterID)) {
	plan := ids.Plan
	if ids.Next >= len(plan.Rooms) {
		var moved []idseq.CharacterID
		if pt, ok := w.Parties.byID[plan.OwningParty]; ok {
			for m := range pt.Members {
				if c, ok := w.Characters[m]; ok {
					w.Vacate(c.RoomID, m)
					c.RoomID = plan.StartRoom
					w.Occupy(plan.StartRoom, m)
					moved = append(moved, m)
				}
			}
		}
		if onComplete != nil {
			onComplete(moved)
		}
		return
	}

	r := plan.Rooms[ids.Next]
	w.Rooms.InsertRoom(r.ID, r.Def)
	w.Scheduler.Schedule(nowMs, scheduler.KindPartyBuildNext, partyBuildIDs{Plan: plan, Next: ids.Next + 1})
}

// newProtoBuildPlan constructs a small throwaway linear instance for the
// `proto`/`party run` commands to exercise step-at-a-time construction
// (spec.md §4.2.5). Room ids are namespaced under prefix so repeated runs
// never collide with static world data or with each other.
func newProtoBuildPlan(prefix string, owningParty idseq.PartyID) *BuildPlan {
	r1, r2, r3 := prefix+".hall", prefix+".vault", prefix+".sanctum"
	return &BuildPlan{
		InstancePrefix: prefix,
		StartRoom:      r1,
		OwningParty:    owningParty,
		Rooms: []PlannedRoom{
			{ID: r1, Def: worlddata.Room{
				ID: r1, Name: "Crumbling Hall", AreaName: "Proto Instance",
				Description: "Dust sifts from a ceiling that was not here a moment ago.\r\n",
				Exits:       []worlddata.Exit{{Dir: "north", To: r2}},
			}},
			{ID: r2, Def: worlddata.Room{
				ID: r2, Name: "Sealed Vault", AreaName: "Proto Instance",
				Description: "Something valuable rattles behind a door with no handle.\r\n",
				Exits:       []worlddata.Exit{{Dir: "south", To: r1}, {Dir: "north", To: r3}},
			}},
			{ID: r3, Def: worlddata.Room{
				ID: r3, Name: "Inner Sanctum", AreaName: "Proto Instance",
				Description: "The air hums with whatever built this place.\r\n",
				Exits:       []worlddata.Exit{{Dir: "south", To: r2}},
			}},
		},
	}
}

func hasPrefix(room, prefix string) bool {
	p := prefix
	if len(p) == 0 || p[len(p)-1] != '.' {
		p += "."
	}
	return len(room) >= len(p) && room[:len(p)] == p
}
