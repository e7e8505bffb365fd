package shard

import (
	"testing"

	"github.com/fanzynoodle/slopmud/internal/idseq"
)

// S2 Party XP split: two party members both alive in the same room share
// a mob's XP, remainder to the killer (spec.md boundary scenario S2).
func TestSplitPartyXPOddRemainderToKiller(t *testing.T) {
	w := newTestWorld(t)
	a := NewCharacter(w.NextCharacterID(), "A", "acct:a", nil, false)
	b := NewCharacter(w.NextCharacterID(), "B", "acct:b", nil, false)
	a.RoomID, b.RoomID = "town.gate", "town.gate"
	w.Characters[a.ID] = a
	w.Characters[b.ID] = b
	w.Occupy("town.gate", a.ID)
	w.Occupy("town.gate", b.ID)

	pt := w.Parties.Create(a.ID)
	w.Parties.Join(pt.ID, b.ID)

	shares := make(map[idseq.CharacterID]int64)
	w.SplitPartyXP(a.ID, "town.gate", 11, func(cid idseq.CharacterID, share int64) {
		shares[cid] = share
	})

	if shares[a.ID] != 6 {
		t.Errorf("killer share = %d, want 6 (floor(11/2) + remainder 1)", shares[a.ID])
	}
	if shares[b.ID] != 5 {
		t.Errorf("other member share = %d, want 5", shares[b.ID])
	}
}

func TestSplitPartyXPExcludesDeadMembers(t *testing.T) {
	w := newTestWorld(t)
	a := NewCharacter(w.NextCharacterID(), "A", "acct:a", nil, false)
	b := NewCharacter(w.NextCharacterID(), "B", "acct:b", nil, false)
	a.RoomID, b.RoomID = "town.gate", "town.gate"
	b.Resources.HP = 0
	w.Characters[a.ID] = a
	w.Characters[b.ID] = b
	w.Occupy("town.gate", a.ID)
	w.Occupy("town.gate", b.ID)

	pt := w.Parties.Create(a.ID)
	w.Parties.Join(pt.ID, b.ID)

	shares := make(map[idseq.CharacterID]int64)
	w.SplitPartyXP(a.ID, "town.gate", 10, func(cid idseq.CharacterID, share int64) {
		shares[cid] = share
	})

	if shares[a.ID] != 10 {
		t.Errorf("sole alive member share = %d, want 10", shares[a.ID])
	}
	if _, ok := shares[b.ID]; ok {
		t.Error("dead party member should not receive an XP share")
	}
}

// S4 Boss interrupt: a stun applied mid-cast cancels the pending resolve
// and still allows the next telegraph at the original +6500ms mark
// (spec.md boundary scenario S4).
func TestBossStunCancelsResolve(t *testing.T) {
	w := newTestWorld(t)
	boss := NewCharacter(w.NextCharacterID(), "grease_king", "", nil, false)
	boss.RoomID = "town.gate"
	w.Characters[boss.ID] = boss
	w.Occupy("town.gate", boss.ID)

	b := &Boss{ID: boss.ID, RoomID: "town.gate"}
	w.BossTelegraph(b, 0, nil)
	if b.CastingUntilMs != bossCastMs {
		t.Fatalf("casting_until_ms = %d, want %d", b.CastingUntilMs, bossCastMs)
	}

	seqAtTelegraph := b.Seq
	w.StunBoss(b)
	if b.CastingUntilMs != 0 {
		t.Error("stun mid-cast should zero casting_until_ms")
	}
	if b.Seq == seqAtTelegraph {
		t.Error("stun mid-cast should bump seq, invalidating the pending resolve")
	}

	resolved := false
	w.BossResolve(b, seqAtTelegraph, bossCastMs, nil, func(idseq.CharacterID) { resolved = true })
	if resolved {
		t.Error("resolve with a stale seq must not fire the AoE")
	}
}
