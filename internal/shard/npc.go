package shard

import (
	"fmt"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
)

// Default mob combat stats for ad-hoc spawns and ambient NPCs (spec.md §3
// "mob" characters, §4.2.2 admin `spawn`).
const (
	defaultMobDmgMin = 1
	defaultMobDmgMax = 4
)

// SpawnMob creates an uncontrolled character (Controller == nil, spec.md
// §3) in room and adds it to the world.
func (w *World) SpawnMob(name, room string) *Character {
	id := w.NextCharacterID()
	mob := NewCharacter(id, name, "", nil, false)
	mob.RoomID = room
	mob.MobDmgMin, mob.MobDmgMax = defaultMobDmgMin, defaultMobDmgMax
	w.Characters[id] = mob
	w.Occupy(room, id)
	return mob
}

// ensureSingletonIDs identifies one named, roomed NPC that must always
// have exactly one living instance in the world (spec.md §3, §2's Shard
// row: the bartender and the class-hall NPCs are genesis-bootstrapped
// singletons; a first-fight worm is the tutorial mob). RespawnMs is the
// recheck interval the event reschedules itself at.
type ensureSingletonIDs struct {
	Name      string
	Room      string
	RespawnMs int64
}

// roomMessageIDs is a recurring ambient line broadcast to one room (spec.md
// §3's bartender emote).
type roomMessageIDs struct {
	Room       string
	Line       string
	IntervalMs int64
}

// mobWanderIDs identifies a mob that periodically moves between the exits
// of its current room (spec.md §3 mob wander).
type mobWanderIDs struct {
	Mob        idseq.CharacterID
	IntervalMs int64
}

// ScheduleEnsureSingletonNPC schedules the first ensure-check for name in
// room, recurring every respawnMs.
func (w *World) ScheduleEnsureSingletonNPC(nowMs int64, name, room string, respawnMs int64) {
	w.Scheduler.Schedule(nowMs, scheduler.KindEnsureSingletonNPC, ensureSingletonIDs{
		Name: name, Room: room, RespawnMs: respawnMs,
	})
}

// FireEnsureSingletonNPC respawns ids.Name in ids.Room if no living
// instance of it currently exists anywhere, then reschedules itself.
func (w *World) FireEnsureSingletonNPC(ids ensureSingletonIDs, nowMs int64) {
	found := false
	for _, c := range w.Characters {
		if c.IsMob() && c.Name == ids.Name && c.IsAlive() {
			found = true
			break
		}
	}
	room := ids.Room
	if !w.Rooms.HasRoom(room) {
		room = w.Rooms.StartRoom()
	}
	if !found {
		w.SpawnMob(ids.Name, room)
	}
	w.Scheduler.Schedule(nowMs+ids.RespawnMs, scheduler.KindEnsureSingletonNPC, ids)
}

// ScheduleRoomMessage schedules the first firing of a recurring ambient
// room broadcast.
func (w *World) ScheduleRoomMessage(nowMs int64, room, line string, intervalMs int64) {
	w.Scheduler.Schedule(nowMs+intervalMs, scheduler.KindRoomMessage, roomMessageIDs{
		Room: room, Line: line, IntervalMs: intervalMs,
	})
}

// FireRoomMessage broadcasts ids.Line to ids.Room and reschedules itself.
func (w *World) FireRoomMessage(ids roomMessageIDs, nowMs int64, broadcast func(room, line string)) {
	if !w.Rooms.HasRoom(ids.Room) {
		w.Scheduler.Schedule(nowMs+ids.IntervalMs, scheduler.KindRoomMessage, ids)
		return
	}
	if broadcast != nil {
		broadcast(ids.Room, ids.Line)
	}
	w.Scheduler.Schedule(nowMs+ids.IntervalMs, scheduler.KindRoomMessage, ids)
}

// ScheduleMobWander schedules the first wander step for mob.
func (w *World) ScheduleMobWander(nowMs int64, mob idseq.CharacterID, intervalMs int64) {
	w.Scheduler.Schedule(nowMs+intervalMs, scheduler.KindMobWander, mobWanderIDs{
		Mob: mob, IntervalMs: intervalMs,
	})
}

// FireMobWander moves ids.Mob through a pseudo-random exit of its current
// room, provided it is alive, unstunned, and not currently fighting, then
// reschedules itself. A mob that has died or been disenrolled quietly
// drops the recurring event instead of respawning — respawn is
// FireEnsureSingletonNPC's job.
func (w *World) FireMobWander(ids mobWanderIDs, nowMs int64, broadcast func(room, line string)) {
	c, ok := w.Characters[ids.Mob]
	if !ok || !c.IsAlive() {
		return
	}
	w.Scheduler.Schedule(nowMs+ids.IntervalMs, scheduler.KindMobWander, ids)

	if c.IsStunned(nowMs) || c.Target != nil {
		return
	}
	room, ok := w.Rooms.Room(c.RoomID)
	if !ok || len(room.Exits) == 0 {
		return
	}
	ex := room.Exits[int(nowMs/1000)%len(room.Exits)]
	if ex.Sealed || !w.Rooms.HasRoom(ex.To) {
		return
	}

	src := c.RoomID
	w.Vacate(src, c.ID)
	c.RoomID = ex.To
	w.Occupy(ex.To, c.ID)
	if broadcast != nil {
		broadcast(src, fmt.Sprintf("* %s wanders off.\r\n", c.Name))
		broadcast(ex.To, fmt.Sprintf("* %s wanders in.\r\n", c.Name))
	}
}
