package shard

import (
	"testing"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// S4 (server-level): the boss telegraph/resolve pair only does anything
// when actually drained through Server.tick/fireEvent, not just when its
// World methods are called directly (spec.md §4.2.3 Boss pattern,
// boundary scenario S4).
func TestServerTickDrivesBossTelegraphAndResolve(t *testing.T) {
	w, setClock := newTestWorldWithClock(t)

	boss := NewCharacter(w.NextCharacterID(), "grease_king", "", nil, false)
	boss.RoomID = "town.gate"
	w.Characters[boss.ID] = boss
	w.Occupy("town.gate", boss.ID)
	w.Boss = &Boss{ID: boss.ID, RoomID: "town.gate"}

	victim := NewCharacter(w.NextCharacterID(), "Vic", "acct:vic", nil, false)
	victim.RoomID = "town.gate"
	victim.Resources.HP, victim.Resources.MaxHP = 20, 20
	sess := wire.NewSessionID()
	victim.Controller = &sess
	w.Characters[victim.ID] = victim
	w.Occupy("town.gate", victim.ID)
	w.Sessions[sess] = []idseq.CharacterID{victim.ID}

	w.Scheduler.Schedule(w.Now(), scheduler.KindBossTelegraph, bossTelegraphIDs{Boss: boss.ID})

	srv := NewServer(w, zap.NewNop())
	var frames []wire.Frame
	writeOut := func(sid wire.SessionID, typ wire.Type, payload []byte) {
		frames = append(frames, wire.Frame{Type: typ, SessionID: sid, Payload: payload})
	}

	srv.tick(writeOut)
	if w.Boss.CastingUntilMs == 0 {
		t.Fatalf("tick should have drained the telegraph and set casting_until_ms")
	}
	if len(frames) == 0 {
		t.Fatalf("expected the telegraph broadcast to reach the victim")
	}

	setClock(w.Boss.CastingUntilMs)
	frames = nil
	srv.tick(writeOut)

	if want := 20 - bossAoeDamage; victim.Resources.HP != want {
		t.Errorf("victim HP = %d, want %d after boss resolve", victim.Resources.HP, want)
	}
	if len(frames) == 0 {
		t.Fatalf("expected the resolve broadcast/damage line to reach the victim")
	}
}

// Wiring the stun skill to StunBoss must interrupt an in-flight boss cast
// on the target (spec.md §4.2.3 "a stun interrupts any in-flight boss
// cast on the target").
func TestSkillStunInterruptsBossCast(t *testing.T) {
	w := newTestWorld(t)

	boss := NewCharacter(w.NextCharacterID(), "grease_king", "", nil, false)
	boss.RoomID = "town.gate"
	w.Characters[boss.ID] = boss
	w.Occupy("town.gate", boss.ID)
	w.Boss = &Boss{ID: boss.ID, RoomID: "town.gate"}
	w.BossTelegraph(w.Boss, 0, nil)
	seqBefore := w.Boss.Seq

	caster := NewCharacter(w.NextCharacterID(), "Warrior", "acct:w", nil, false)
	caster.RoomID = "town.gate"
	caster.Sheet.Class = "warrior"
	caster.Sheet.Skills["shieldbash"] = 1
	caster.Resources.Stamina = 10
	w.Characters[caster.ID] = caster
	w.Occupy("town.gate", caster.ID)

	res := w.UseSkill(caster.ID, "shieldbash", boss.ID, nil, 0, nil)
	if !res.OK {
		t.Fatalf("UseSkill = %+v, want ok", res)
	}
	if w.Boss.CastingUntilMs != 0 {
		t.Error("stunning the boss should zero casting_until_ms")
	}
	if w.Boss.Seq == seqBefore {
		t.Error("stunning the boss should bump seq, invalidating the pending resolve")
	}
}
