package shard

import (
	"github.com/fanzynoodle/slopmud/internal/core/event"
	"github.com/fanzynoodle/slopmud/internal/idseq"
)

// SkillKind is the tagged-variant kind of a skill definition (spec.md §9
// "trait-free match on kind" — no runtime plugin dispatch in the core).
type SkillKind int

const (
	SkillDamage SkillKind = iota
	SkillHeal
	SkillStun
)

// SkillDef is one trained-skill definition.
type SkillDef struct {
	Name       string
	Kind       SkillKind
	Class      string
	ManaCost   int
	StamCost   int
	CooldownMs int64
	Amount     int   // damage or heal amount
	StunMs     int64 // for SkillStun
}

// skillDefs is the built-in skill catalogue; flavour text and the rest of
// the item/skill surface is out of scope (spec.md §1).
var skillDefs = map[string]SkillDef{
	"slash":     {Name: "slash", Kind: SkillDamage, Class: "warrior", ManaCost: 0, StamCost: 3, CooldownMs: 2000, Amount: 4},
	"fireball":  {Name: "fireball", Kind: SkillDamage, Class: "mage", ManaCost: 5, StamCost: 0, CooldownMs: 3000, Amount: 6},
	"mend":      {Name: "mend", Kind: SkillHeal, Class: "cleric", ManaCost: 4, StamCost: 0, CooldownMs: 2500, Amount: 6},
	"shieldbash": {Name: "shieldbash", Kind: SkillStun, Class: "warrior", ManaCost: 0, StamCost: 4, CooldownMs: 5000, StunMs: 1500},
}

// UseSkillResult reports the outcome of UseSkill.
type UseSkillResult struct {
	OK      bool
	Message string
}

// UseSkill applies a trained skill's effect (spec.md §4.2.3 "Skill use").
// target is ignored for self-only effects (heal targets the caster).
func (w *World) UseSkill(casterID idseq.CharacterID, skillName string, targetID idseq.CharacterID, pvpAllowed func(room string) bool, nowMs int64, broadcast func(room, line string)) UseSkillResult {
	c, ok := w.Characters[casterID]
	if !ok {
		return UseSkillResult{Message: "huh? (try: a skill you know)\r\n"}
	}
	def, ok := skillDefs[skillName]
	if !ok || def.Class != c.Sheet.Class || c.Sheet.Skills[skillName] < 1 {
		return UseSkillResult{Message: "huh? (try: a skill you know)\r\n"}
	}
	if readyAt := c.Sheet.Cooldowns[skillName]; readyAt > nowMs {
		return UseSkillResult{Message: "not ready yet.\r\n"}
	}
	if c.Resources.Mana < def.ManaCost || c.Resources.Stamina < def.StamCost {
		return UseSkillResult{Message: "not enough mana or stamina.\r\n"}
	}

	switch def.Kind {
	case SkillDamage:
		t, ok := w.Characters[targetID]
		if !ok || t.RoomID != c.RoomID {
			return UseSkillResult{Message: "huh? (try: targeting something in the room)\r\n"}
		}
		if !t.IsMob() && !c.IsMob() && pvpAllowed != nil && !pvpAllowed(c.RoomID) {
			return UseSkillResult{Message: "not here; pvp is disabled in this room.\r\n"}
		}
		if t.ApplyDamage(def.Amount) {
			event.Emit(w.Bus, event.CharacterKilled{VictimID: targetID, KillerID: casterID, RoomID: c.RoomID})
		}
		if broadcast != nil {
			broadcast(c.RoomID, "* "+c.Name+" uses "+skillName+".\r\n")
		}
	case SkillHeal:
		c.Heal(def.Amount)
	case SkillStun:
		t, ok := w.Characters[targetID]
		if !ok || t.RoomID != c.RoomID {
			return UseSkillResult{Message: "huh? (try: targeting something in the room)\r\n"}
		}
		t.Stun(nowMs + def.StunMs)
		if w.Boss != nil && w.Boss.ID == targetID {
			w.StunBoss(w.Boss)
		}
	}

	c.Resources.Mana -= def.ManaCost
	c.Resources.Stamina -= def.StamCost
	c.Sheet.Cooldowns[skillName] = nowMs + def.CooldownMs
	return UseSkillResult{OK: true, Message: "done.\r\n"}
}
