package shard

import (
	"fmt"
	"math/rand"

	"github.com/fanzynoodle/slopmud/internal/core/event"
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
)

const (
	unarmedDmg          = 2
	combatReactMs       = 1000
	bossCastMs          = 2500
	bossNextTelegraphMs = 6500
	bossAoeDamage       = 8
)

// Weapon is the damage range of an equipped or unarmed attack.
type Weapon struct {
	DmgMin, DmgMax int
}

// ClassModifier returns the (possibly negative) per-hit ability modifier
// for a class; only its non-negative part is ever added to damage
// (spec.md §4.2.3 step 4).
func ClassModifier(class string) int {
	switch class {
	case "warrior":
		return 2
	case "rogue":
		return 1
	default:
		return 0
	}
}

// autoattackIDs is the scheduler payload for a KindCombatAct event.
type autoattackIDs struct {
	Attacker idseq.CharacterID
}

// ScheduleAutoattack enqueues the next combat act for attacker.
func (w *World) ScheduleAutoattack(attacker idseq.CharacterID, dueMs int64) {
	w.Scheduler.Schedule(dueMs, scheduler.KindCombatAct, autoattackIDs{Attacker: attacker})
}

// FireCombatAct resolves one CombatAct event per spec.md §4.2.3 steps 1-6.
// broadcast, if non-nil, is called with (room, line) for room lines;
// killed, if non-nil, is invoked on a kill with (victim, killer).
func (w *World) FireCombatAct(attacker idseq.CharacterID, nowMs int64, broadcast func(room, line string), killed func(victim, killer idseq.CharacterID)) {
	a, ok := w.Characters[attacker]
	if !ok {
		return
	}
	if !a.Autoattack || a.Target == nil {
		return
	}
	tid := *a.Target
	t, ok := w.Characters[tid]
	if !ok || t.RoomID != a.RoomID {
		a.Autoattack = false
		a.Target = nil
		return
	}

	readyAt := a.NextReadyMs
	if a.StunnedUntilMs > readyAt {
		readyAt = a.StunnedUntilMs
	}
	if readyAt > nowMs {
		w.ScheduleAutoattack(attacker, readyAt)
		return
	}

	dmg := w.rollDamage(a)
	killedNow := t.ApplyDamage(dmg)
	if broadcast != nil {
		broadcast(a.RoomID, fmt.Sprintf("* %s hits %s for %d.\r\n", a.Name, t.Name, dmg))
	}
	if killedNow {
		a.Target = nil
		a.Autoattack = false
		event.Emit(w.Bus, event.CharacterKilled{VictimID: tid, KillerID: attacker, RoomID: a.RoomID})
		if killed != nil {
			killed(tid, attacker)
		}
		return
	}

	a.NextReadyMs = nowMs + combatReactMs
	w.ScheduleAutoattack(attacker, a.NextReadyMs)
}

func (w *World) rollDamage(a *Character) int {
	if a.IsMob() {
		lo, hi := a.MobDmgMin, a.MobDmgMax
		if hi <= lo {
			return lo
		}
		return lo + rand.Intn(hi-lo+1)
	}
	weapon := w.equippedWeapon(a)
	base := weapon.DmgMin
	if weapon.DmgMax > weapon.DmgMin {
		base += rand.Intn(weapon.DmgMax - weapon.DmgMin + 1)
	}
	mod := ClassModifier(a.Sheet.Class)
	if mod < 0 {
		mod = 0
	}
	return base + mod
}

func (w *World) equippedWeapon(a *Character) Weapon {
	name, ok := a.Equipment["weapon"]
	if !ok || name == "" {
		return Weapon{DmgMin: unarmedDmg, DmgMax: unarmedDmg}
	}
	if wp, ok := weaponDefs[name]; ok {
		return wp
	}
	return Weapon{DmgMin: unarmedDmg, DmgMax: unarmedDmg}
}

// weaponDefs is a minimal built-in weapon table; the full item catalogue
// is an out-of-scope command-surface-flavour concern (spec.md §1).
var weaponDefs = map[string]Weapon{
	"practice sword (medium)": {DmgMin: 2, DmgMax: 4},
	"practice sword (small)":  {DmgMin: 1, DmgMax: 3},
	"iron sword":              {DmgMin: 3, DmgMax: 6},
}

// SplitPartyXP distributes xp across every eligible party member (same
// room as killer, alive), floor(xp/n) each with the remainder to a single
// deterministic recipient — the killer if present, else the lowest
// character id (spec.md §4.2.3, boundary scenario S2).
func (w *World) SplitPartyXP(killer idseq.CharacterID, room string, xp int64, report func(cid idseq.CharacterID, share int64)) {
	pt, ok := w.Parties.PartyOf(killer)
	var eligible []idseq.CharacterID
	if ok {
		for m := range pt.Members {
			mc, exists := w.Characters[m]
			if exists && mc.RoomID == room && mc.IsAlive() {
				eligible = append(eligible, m)
			}
		}
	} else {
		eligible = []idseq.CharacterID{killer}
	}
	if len(eligible) == 0 {
		return
	}

	n := int64(len(eligible))
	share := xp / n
	remainder := xp % n

	recipient := eligible[0]
	for _, m := range eligible {
		if m == killer {
			recipient = killer
			break
		}
		if m < recipient {
			recipient = m
		}
	}

	for _, m := range eligible {
		got := share
		if m == recipient {
			got += remainder
		}
		w.grantXP(m, got)
		if report != nil {
			report(m, got)
		}
	}
}

// grantXP adds xp and applies the level-up effect whenever the character
// crosses the next threshold (spec.md §4.2.3 "level-up increments...").
func (w *World) grantXP(cid idseq.CharacterID, xp int64) {
	c, ok := w.Characters[cid]
	if !ok {
		return
	}
	c.Sheet.XP += xp
	for c.Sheet.XP >= xpForLevel(c.Sheet.Level+1) {
		c.Sheet.Level++
		c.Sheet.SkillPoints++
		c.Resources.MaxHP += 2
		c.Resources.HP = c.Resources.MaxHP
		c.Resources.Mana = c.Resources.MaxMana
		c.Resources.Stamina = c.Resources.MaxStam
		event.Emit(w.Bus, event.LevelUp{CharacterID: cid, NewLevel: c.Sheet.Level})
	}
}

func xpForLevel(level int) int64 {
	return int64(level) * int64(level) * 10
}

// Boss is the sole scripted boss pattern state (spec.md §4.2.3 Boss
// pattern).
type Boss struct {
	ID              idseq.CharacterID
	RoomID          string
	Seq             uint64
	CastingUntilMs  int64
}

type bossTelegraphIDs struct{ Boss idseq.CharacterID }
type bossResolveIDs struct {
	Boss idseq.CharacterID
	Seq  uint64
}

// BossTelegraph marks the boss as casting and schedules its resolve and
// its next telegraph (spec.md §4.2.3 Boss pattern, "Telegraph").
func (w *World) BossTelegraph(b *Boss, nowMs int64, broadcast func(room, line string)) {
	b.CastingUntilMs = nowMs + bossCastMs
	b.Seq++
	if broadcast != nil {
		broadcast(b.RoomID, fmt.Sprintf("* %s begins a terrible working.\r\n", w.bossName(b)))
	}
	w.Scheduler.Schedule(b.CastingUntilMs, scheduler.KindBossResolve, bossResolveIDs{Boss: b.ID, Seq: b.Seq})
	w.Scheduler.Schedule(nowMs+bossNextTelegraphMs, scheduler.KindBossTelegraph, bossTelegraphIDs{Boss: b.ID})
}

// BossResolve fires the AoE if seq still matches and the cast is still
// due, per spec.md §4.2.3 "Resolve".
func (w *World) BossResolve(b *Boss, seq uint64, nowMs int64, broadcast func(room, line string), damage func(cid idseq.CharacterID)) {
	if b.Seq != seq || b.CastingUntilMs == 0 || b.CastingUntilMs > nowMs {
		return
	}
	if broadcast != nil {
		broadcast(b.RoomID, "* the working resolves in a wave of force!\r\n")
	}
	for cid := range w.Occupants[b.RoomID] {
		c, ok := w.Characters[cid]
		if !ok || c.IsMob() || !c.IsAlive() {
			continue
		}
		c.ApplyDamage(bossAoeDamage)
		if damage != nil {
			damage(cid)
		}
	}
}

// StunBoss interrupts an in-flight cast: casting_until_ms resets to 0 and
// seq increments, cancelling the pending resolve (spec.md §4.2.3).
func (w *World) StunBoss(b *Boss) {
	if b.CastingUntilMs != 0 {
		b.CastingUntilMs = 0
		b.Seq++
	}
}

func (w *World) bossName(b *Boss) string {
	if c, ok := w.Characters[b.ID]; ok {
		return c.Name
	}
	return "the boss"
}
