package shard

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/core/event"
	"github.com/fanzynoodle/slopmud/internal/grouplog"
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
	"github.com/fanzynoodle/slopmud/internal/shard/scripts"
	"github.com/fanzynoodle/slopmud/internal/wire"
	"github.com/fanzynoodle/slopmud/internal/worlddata"
)

// ClassNames is the fixed class enumeration (spec.md §4.3.1's build-time
// class token list), used at startup to genesis-bootstrap one class:<name>
// group per class (spec.md §4.2.6).
var ClassNames = []string{
	"barbarian", "bard", "cleric", "druid", "fighter", "monk",
	"paladin", "ranger", "rogue", "sorcerer", "warlock", "wizard",
}

// World is the single-owner authoritative game state (spec.md §5: one task
// owns the World; there is no shared-memory concurrency over it). Every
// cross-entity reference is an id, never a pointer cycle (spec.md §9).
type World struct {
	log  *zap.Logger
	Now  func() int64 // monotonic elapsed ms since shard start

	Rooms     *worlddata.Rooms
	Occupants map[string]map[idseq.CharacterID]bool

	Characters map[idseq.CharacterID]*Character
	Sessions   map[wire.SessionID][]idseq.CharacterID // live controller -> its characters

	Parties *parties

	Scheduler *scheduler.Queue
	Groups    *grouplog.Log
	Store     *grouplog.Store
	Scripts   *scripts.Engine

	Bus *event.Bus

	// Boss is the world's sole scripted boss (spec.md §4.2.3 Boss
	// pattern), nil until Bootstrap runs.
	Boss *Boss

	bartenderEmoteMs int64
	mobWanderMs      int64

	chars *idseq.Characters

	// RaftWatch tracks which characters have enabled `raft watch` and
	// therefore receive a best-effort broadcast line on every group log
	// append (spec.md §4.2.6).
	RaftWatch map[idseq.CharacterID]bool

	// pendingConfirm holds at most one pending yes/no/cancel confirmation
	// per session (spec.md §4.2.2).
	pendingConfirm map[wire.SessionID]func(answer string) string
}

// Deps bundles World construction inputs so callers don't juggle a long
// positional arg list.
type Deps struct {
	Rooms   *worlddata.Rooms
	Groups  *grouplog.Log
	Store   *grouplog.Store
	Scripts *scripts.Engine
	Now     func() int64
	Log     *zap.Logger

	// BartenderEmoteMs and MobWanderMs configure the ambient-NPC
	// recurring events Bootstrap schedules (spec.md §3, §2's Shard row).
	BartenderEmoteMs int64
	MobWanderMs      int64
}

// NewWorld assembles an empty world around the given dependencies.
func NewWorld(d Deps) *World {
	return &World{
		log:            d.Log,
		Now:            d.Now,
		Rooms:          d.Rooms,
		Occupants:      make(map[string]map[idseq.CharacterID]bool),
		Characters:     make(map[idseq.CharacterID]*Character),
		Sessions:       make(map[wire.SessionID][]idseq.CharacterID),
		Parties:        newParties(idseq.NewParties()),
		Scheduler:      scheduler.NewQueue(),
		Groups:         d.Groups,
		Store:          d.Store,
		Scripts:        d.Scripts,
		Bus:              event.NewBus(),
		bartenderEmoteMs: d.BartenderEmoteMs,
		mobWanderMs:      d.MobWanderMs,
		chars:            idseq.NewCharacters(),
		RaftWatch:        make(map[idseq.CharacterID]bool),
		pendingConfirm:   make(map[wire.SessionID]func(string) string),
	}
}

// housekeepingTickMs is the interval of the generic KindTick heartbeat
// (spec.md §3's Scheduler Tick kind): it sweeps expired party invites so
// a declined-by-silence invite doesn't linger forever in memory.
const housekeepingTickMs = 30_000

// bossCharName is the sole scripted boss's display name (spec.md §4.2.3).
const bossCharName = "the Hollow Warden"

// bartenderName and wormName are the world's two genesis-bootstrapped
// singleton NPCs (spec.md §3, §2's Shard row).
const (
	bartenderName = "the bartender"
	wormName      = "a writhing worm"
)

// Bootstrap spawns the world's singleton NPCs and scripted boss and
// schedules their recurring ambient events. Call once at shard startup,
// after NewWorld and after Rooms is loaded.
func (w *World) Bootstrap(nowMs int64) {
	start := w.Rooms.StartRoom()

	w.SpawnMob(bartenderName, start)
	w.ScheduleRoomMessage(nowMs, start, "* the bartender polishes a glass and hums an old tune.\r\n", w.emoteInterval())

	worm := w.SpawnMob(wormName, start)
	w.ScheduleEnsureSingletonNPC(nowMs, wormName, start, w.wanderInterval()*4)
	w.ScheduleMobWander(nowMs, worm.ID, w.wanderInterval())

	boss := w.SpawnMob(bossCharName, start)
	boss.MobDmgMin, boss.MobDmgMax = bossAoeDamage, bossAoeDamage
	w.Boss = &Boss{ID: boss.ID, RoomID: start}
	w.Scheduler.Schedule(nowMs, scheduler.KindBossTelegraph, bossTelegraphIDs{Boss: boss.ID})

	w.Scheduler.Schedule(nowMs+housekeepingTickMs, scheduler.KindTick, tickIDs{IntervalMs: housekeepingTickMs})
}

func (w *World) emoteInterval() int64 {
	if w.bartenderEmoteMs <= 0 {
		return 45_000
	}
	return w.bartenderEmoteMs
}

func (w *World) wanderInterval() int64 {
	if w.mobWanderMs <= 0 {
		return 8_000
	}
	return w.mobWanderMs
}

// tickIDs is the scheduler payload for the generic housekeeping heartbeat.
type tickIDs struct{ IntervalMs int64 }

// FireTick runs the periodic housekeeping sweep and reschedules itself.
func (w *World) FireTick(ids tickIDs, nowMs int64) {
	w.Parties.expireInvites(nowMs)
	w.Scheduler.Schedule(nowMs+ids.IntervalMs, scheduler.KindTick, ids)
}

// Occupy places cid in room, creating the occupancy set if needed.
func (w *World) Occupy(room string, cid idseq.CharacterID) {
	set, ok := w.Occupants[room]
	if !ok {
		set = make(map[idseq.CharacterID]bool)
		w.Occupants[room] = set
	}
	set[cid] = true
}

// Vacate removes cid from room's occupancy set, deleting the set if it
// empties (spec.md §4.2.1 "cleaning empty sets").
func (w *World) Vacate(room string, cid idseq.CharacterID) {
	set, ok := w.Occupants[room]
	if !ok {
		return
	}
	delete(set, cid)
	if len(set) == 0 {
		delete(w.Occupants, room)
	}
}

// OccupantsOf returns the character ids currently in room.
func (w *World) OccupantsOf(room string) []idseq.CharacterID {
	set := w.Occupants[room]
	out := make([]idseq.CharacterID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// NextCharacterID allocates the next monotonic character id.
func (w *World) NextCharacterID() idseq.CharacterID { return w.chars.Next() }

// LeaveParty removes cid from its party, emitting PartyDisbanded if the
// party's member set empties as a result (spec.md §3).
func (w *World) LeaveParty(cid idseq.CharacterID) {
	pid, disbanded := w.Parties.Leave(cid)
	if disbanded {
		event.Emit(w.Bus, event.PartyDisbanded{PartyID: pid})
	}
}

// EffectiveCaps resolves a character's effective capability set (spec.md
// §4.2.6).
func (w *World) EffectiveCaps(c *Character) map[string]bool {
	return w.Store.EffectiveCaps(c.Principal, c.Sheet.Class, c.AuthCaps)
}

// HasCap reports whether c holds cap, either directly or via admin.all.
func (w *World) HasCap(c *Character, cap string) bool {
	return grouplog.HasCap(w.EffectiveCaps(c), cap)
}

// SetPendingConfirm registers a one-shot yes/no/cancel continuation for
// sess's next input line (spec.md §4.2.2).
func (w *World) SetPendingConfirm(sess wire.SessionID, fn func(answer string) string) {
	w.pendingConfirm[sess] = fn
}

// TakePendingConfirm consumes and returns sess's pending confirmation, if
// any.
func (w *World) TakePendingConfirm(sess wire.SessionID) (func(string) string, bool) {
	fn, ok := w.pendingConfirm[sess]
	if ok {
		delete(w.pendingConfirm, sess)
	}
	return fn, ok
}

// AppendGroupEntry appends entry to the replicated group log, applies it,
// and best-effort broadcasts a raft[<index>] line to every raft-watch-
// enabled character (spec.md §4.2.6).
func (w *World) AppendGroupEntry(entry grouplog.Entry, out func(idseq.CharacterID, string)) (uint64, error) {
	idx, err := w.Groups.Append(entry, w.Now())
	if err != nil {
		return 0, fmt.Errorf("append group entry: %w", err)
	}
	summary := entrySummary(entry, idx)
	if out != nil {
		raftLine := fmt.Sprintf("raft[%d] %s\r\n", idx, summary)
		for cid := range w.RaftWatch {
			out(cid, raftLine)
		}
	}
	event.Emit(w.Bus, event.GroupLogAppended{Index: idx, JSON: summary})
	return idx, nil
}

func entrySummary(e grouplog.Entry, idx uint64) string {
	return fmt.Sprintf("%d:%s", idx, e.Type)
}
