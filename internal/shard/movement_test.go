package shard

import (
	"strings"
	"testing"

	"github.com/fanzynoodle/slopmud/internal/wire"
)

// S1 Movement gate: a character without quest["gate.sewers.entry"] set
// attempting `go down` from town.gate must be refused with the literal
// sealed-gate message (spec.md boundary scenario S1).
func TestMovementGateRefusesUnmetQuest(t *testing.T) {
	w := newTestWorld(t)
	c := NewCharacter(w.NextCharacterID(), "Tester", "acct:tester", nil, false)
	c.BuildComplete = true
	c.RoomID = "town.gate"
	w.Characters[c.ID] = c
	w.Occupy(c.RoomID, c.ID)

	res := w.Move(c.ID, "down")
	if res.OK {
		t.Fatal("expected move to fail on unmet gate")
	}
	if !strings.HasPrefix(res.ToMover, "the way is sealed. (gate: gate.sewers.entry)") {
		t.Errorf("got %q, want prefix %q", res.ToMover, "the way is sealed. (gate: gate.sewers.entry)")
	}
}

func TestMovementGateSucceedsWhenQuestSet(t *testing.T) {
	w := newTestWorld(t)
	c := NewCharacter(w.NextCharacterID(), "Tester", "acct:tester", nil, false)
	c.BuildComplete = true
	c.RoomID = "town.gate"
	c.Quest["gate.sewers.entry"] = "1"
	w.Characters[c.ID] = c
	w.Occupy(c.RoomID, c.ID)

	res := w.Move(c.ID, "down")
	if !res.OK {
		t.Fatalf("expected move to succeed, got %q", res.ToMover)
	}
	if c.RoomID != "sewers.entry" {
		t.Errorf("character room = %q, want sewers.entry", c.RoomID)
	}
}

// Invariant 1: occupancy maps and character.room_id stay mutually
// consistent across a move.
func TestOccupancyInvariantAcrossMove(t *testing.T) {
	w := newTestWorld(t)
	c := NewCharacter(w.NextCharacterID(), "Tester", "acct:tester", nil, false)
	c.BuildComplete = true
	c.RoomID = "newbie_school.orientation"
	w.Characters[c.ID] = c
	w.Occupy(c.RoomID, c.ID)

	w.Move(c.ID, "north")

	for room, occ := range w.Occupants {
		for id := range occ {
			if w.Characters[id].RoomID != room {
				t.Errorf("occupant %d of room %q has room_id %q", id, room, w.Characters[id].RoomID)
			}
		}
	}
	if !w.Occupants["town.gate"][c.ID] {
		t.Error("character should be an occupant of town.gate after moving north")
	}
	if w.Occupants["newbie_school.orientation"][c.ID] {
		t.Error("character should no longer occupy the orientation room")
	}
}

// Round-trip 8: ATTACH -> DETACH -> ATTACH produces a character equivalent
// to a single ATTACH, with bot_ever not persisting across the detach.
func TestAttachDetachAttachRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	sess := wire.NewSessionID()
	payload := wire.AttachPayload{IsBot: true, Race: "human", Class: "warrior", Sex: "male", Name: "Oof"}

	first := w.Attach(sess, payload, 1000, func(string, string) {})
	ids := w.Sessions[sess]
	if len(ids) != 1 {
		t.Fatalf("expected one character after first attach, got %d", len(ids))
	}
	firstChar := w.Characters[ids[0]]
	if !firstChar.BotEver {
		t.Fatal("expected bot_ever to be set on a bot attach")
	}

	w.Detach(sess, func(string, string) {})
	if _, known := w.Sessions[sess]; known {
		t.Fatal("session should be forgotten after detach")
	}

	second := w.Attach(sess, payload, 2000, func(string, string) {})
	ids2 := w.Sessions[sess]
	secondChar := w.Characters[ids2[0]]

	if secondChar.Name != firstChar.Name || secondChar.Sheet.Race != firstChar.Sheet.Race {
		t.Error("re-attached character should match the original build")
	}
	if secondChar.ID == firstChar.ID {
		t.Error("re-attach should allocate a fresh character id, not reuse the old one")
	}
	if first.ToCaller == "" || second.ToCaller == "" {
		t.Error("both attaches should render a room to the caller")
	}
}
