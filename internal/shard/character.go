// Package shard implements the world engine: the single-threaded owner of
// rooms, characters, parties, the combat/skill scheduler, the replicated
// group/capability log, and dynamic room instancing (spec.md §4.2).
//
// Grounded on the teacher's internal/system/combat.go (state-check-before-
// effect shape) and internal/handler/{movement,party}.go (handler-signature
// idiom), generalized from the L1J item/equipment MMO domain to this
// text-MUD's room/party/combat/group-log domain.
package shard

import (
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// Sheet is a character's class/race/ability/skill data (spec.md §3).
type Sheet struct {
	Race     string
	Class    string
	Sex      string
	Pronouns string

	Level       int
	XP          int64
	SkillPoints int

	Skills map[string]int // skill name -> trained rank
	Cooldowns map[string]int64 // skill name -> ready-at ms
}

// Resources is a character's regenerating pools (spec.md §3, §4.2.4).
type Resources struct {
	HP, MaxHP         int
	Mana, MaxMana     int
	Stamina, MaxStam  int
	LastManaRegenMs   int64
	LastStamRegenMs   int64
}

// Character is one occupant of the world: a player-controlled avatar or a
// mob (Controller == nil). Identity and capability fields are immutable
// for the character's lifetime (spec.md §3 invariants).
type Character struct {
	ID        idseq.CharacterID
	Controller *wire.SessionID // nil for mobs
	CreatedBy  *wire.SessionID
	Name       string
	Principal  string
	AuthCaps   []string

	IsBot       bool
	BotEver     bool
	BotEverAtMs int64

	RoomID string

	Autoattack  bool
	Target      *idseq.CharacterID
	NextReadyMs int64
	StunnedUntilMs int64

	Autoassist   bool
	FollowLeader bool
	PvPOptIn     bool

	BuildComplete bool // race+class chosen

	Sheet     Sheet
	Resources Resources

	Inventory map[string]int
	Equipment map[string]string
	Gold      int64
	Quest     map[string]string

	// Mob-only combat range; zero for player characters, which instead
	// roll their equipped weapon's range.
	MobDmgMin, MobDmgMax int
}

// IsMob reports whether the character has no controlling session.
func (c *Character) IsMob() bool { return c.Controller == nil }

// IsAlive reports whether the character has any hit points left.
func (c *Character) IsAlive() bool { return c.Resources.HP > 0 }

// NewCharacter constructs a freshly-attached character with default
// resources. principal/authCaps are fixed at creation per spec.md §3.
func NewCharacter(id idseq.CharacterID, name, principal string, authCaps []string, isBot bool) *Character {
	return &Character{
		ID:        id,
		Name:      name,
		Principal: principal,
		AuthCaps:  append([]string(nil), authCaps...),
		IsBot:     isBot,
		Sheet: Sheet{
			Skills:    make(map[string]int),
			Cooldowns: make(map[string]int64),
		},
		Resources: Resources{HP: 20, MaxHP: 20, Mana: 10, MaxMana: 10, Stamina: 10, MaxStam: 10},
		Inventory: make(map[string]int),
		Equipment: make(map[string]string),
		Quest:     make(map[string]string),
	}
}

// MarkBot sets the sticky bot_ever flag with a first-true timestamp, never
// overwriting an already-recorded timestamp (spec.md §3 "sticky bot_ever
// with first-true timestamp").
func (c *Character) MarkBot(nowMs int64) {
	c.IsBot = true
	if !c.BotEver {
		c.BotEver = true
		c.BotEverAtMs = nowMs
	}
}

// ApplyDamage subtracts dmg from HP, floored at 0, and reports whether the
// character died from this hit.
func (c *Character) ApplyDamage(dmg int) (killed bool) {
	if dmg < 0 {
		dmg = 0
	}
	c.Resources.HP -= dmg
	if c.Resources.HP <= 0 {
		c.Resources.HP = 0
		return true
	}
	return false
}

// Heal adds amount to HP, clamped into [0, max_hp] (spec.md §4.2.3 heal
// skills).
func (c *Character) Heal(amount int) {
	hp := c.Resources.HP + amount
	if hp < 0 {
		hp = 0
	}
	if hp > c.Resources.MaxHP {
		hp = c.Resources.MaxHP
	}
	c.Resources.HP = hp
}

// Stun extends (never shortens) the character's stun window.
func (c *Character) Stun(untilMs int64) {
	if untilMs > c.StunnedUntilMs {
		c.StunnedUntilMs = untilMs
	}
}

// IsStunned reports whether the character is stunned at nowMs.
func (c *Character) IsStunned(nowMs int64) bool {
	return c.StunnedUntilMs > nowMs
}
