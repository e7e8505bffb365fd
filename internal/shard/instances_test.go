package shard

import (
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// §4.2.5 dynamic instances: `party run` builds a throwaway instance
// step-at-a-time and teleports the party into start_room once it
// completes, driven entirely through Server.tick/fireEvent.
func TestPartyRunBuildsInstanceAndTeleportsParty(t *testing.T) {
	w, setClock := newTestWorldWithClock(t)

	leader := NewCharacter(w.NextCharacterID(), "Leader", "acct:leader", nil, false)
	leader.RoomID = "town.gate"
	sess := wire.NewSessionID()
	leader.Controller = &sess
	w.Characters[leader.ID] = leader
	w.Occupy(leader.RoomID, leader.ID)
	w.Sessions[sess] = []idseq.CharacterID{leader.ID}

	pt := w.Parties.Create(leader.ID)

	var lines []string
	w.HandleInput(sess, leader.ID, "party run", testOut(&lines), w.Now())
	if len(lines) != 1 || lines[0] != "you lead the party into a proto run; stand by.\r\n" {
		t.Fatalf("got %v, want the proto-run acknowledgement", lines)
	}

	srv := NewServer(w, zap.NewNop())
	var frames []wire.Frame
	writeOut := func(sid wire.SessionID, typ wire.Type, payload []byte) {
		frames = append(frames, wire.Frame{Type: typ, SessionID: sid, Payload: payload})
	}

	// Each drain inserts one room; three rooms plus the completion step.
	for i := 0; i < 4; i++ {
		srv.tick(writeOut)
		setClock(w.Now() + 1)
	}

	plan := newProtoBuildPlan(fmt.Sprintf("instance.party%d", pt.ID), pt.ID)
	if !w.Rooms.HasRoom(plan.StartRoom) {
		t.Fatalf("expected %s to exist after the build plan completed", plan.StartRoom)
	}
	if leader.RoomID != plan.StartRoom {
		t.Errorf("leader.RoomID = %q, want %q after the run completed", leader.RoomID, plan.StartRoom)
	}
	if len(frames) == 0 {
		t.Error("expected the leader to receive the completion room render")
	}
}

func TestPartyRunRequiresLeader(t *testing.T) {
	w := newTestWorld(t)

	leader := NewCharacter(w.NextCharacterID(), "Leader", "acct:leader", nil, false)
	member := NewCharacter(w.NextCharacterID(), "Member", "acct:member", nil, false)
	leader.RoomID, member.RoomID = "town.gate", "town.gate"
	w.Characters[leader.ID] = leader
	w.Characters[member.ID] = member
	w.Occupy("town.gate", leader.ID)
	w.Occupy("town.gate", member.ID)

	pt := w.Parties.Create(leader.ID)
	w.Parties.Join(pt.ID, member.ID)

	var lines []string
	sess := wire.NewSessionID()
	w.Sessions[sess] = []idseq.CharacterID{member.ID}
	w.HandleInput(sess, member.ID, "party run", testOut(&lines), 0)

	if len(lines) != 1 || lines[0] != "nope: party.run\r\n" {
		t.Errorf("got %v, want a single nope: party.run line", lines)
	}
}
