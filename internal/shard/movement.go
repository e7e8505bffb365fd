package shard

import (
	"fmt"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/shard/scripts"
	"github.com/fanzynoodle/slopmud/internal/worlddata"
)

const (
	msgNeedBuild  = "you must finish choosing a race and class before you can leave here.\r\n"
	msgSealed     = "the way is sealed.\r\n"
	msgUnknownDir = "huh? (try: a direction, or an exit name)\r\n"
)

// MoveResult is the outcome of an attempted move, carrying the lines to
// emit to the mover, the source room, and the destination room.
type MoveResult struct {
	OK          bool
	ToMover     string
	ToSource    string
	ToDest      string
	SrcRoom     string
	DestRoom    string
	FollowerIDs []idseq.CharacterID // party members dragged along
}

// Move resolves token to an exit of the mover's current room and applies
// the movement policy from spec.md §4.2.1, in order; first failure wins.
func (w *World) Move(cid idseq.CharacterID, token string) MoveResult {
	c, ok := w.Characters[cid]
	if !ok {
		return MoveResult{OK: false, ToMover: msgUnknownDir}
	}

	ex, ok := w.Rooms.FindExit(c.RoomID, token)
	if !ok {
		return MoveResult{OK: false, ToMover: msgUnknownDir}
	}

	if !c.BuildComplete && ex.To != w.Rooms.StartRoom() {
		return MoveResult{OK: false, ToMover: msgNeedBuild}
	}

	if ex.Gate != "" {
		if !worlddata.EvalGate(ex.Gate, c.Quest) {
			return MoveResult{OK: false, ToMover: fmt.Sprintf("the way is sealed. (gate: %s)\r\n", ex.Gate)}
		}
	} else if ex.Sealed {
		return MoveResult{OK: false, ToMover: msgSealed}
	}

	if !w.Rooms.HasRoom(ex.To) {
		return MoveResult{OK: false, ToMover: msgSealed}
	}

	src := c.RoomID
	w.Vacate(src, cid)
	c.RoomID = ex.To
	w.Occupy(ex.To, cid)

	res := MoveResult{
		OK:       true,
		ToMover:  w.Rooms.RenderRoom(ex.To),
		ToSource: fmt.Sprintf("* %s leaves.\r\n", c.Name),
		ToDest:   fmt.Sprintf("* %s arrives.\r\n", c.Name),
		SrcRoom:  src,
		DestRoom: ex.To,
	}

	if hook, herr := w.hookLine(cid, ex.To); herr {
		res.ToMover += hook
	}

	if pt, inParty := w.Parties.PartyOf(cid); inParty && pt.Leader == cid {
		for m := range pt.Members {
			if m == cid {
				continue
			}
			mc, ok := w.Characters[m]
			if !ok || mc.RoomID != src || !mc.FollowLeader {
				continue
			}
			w.Vacate(src, m)
			mc.RoomID = ex.To
			w.Occupy(ex.To, m)
			res.FollowerIDs = append(res.FollowerIDs, m)
		}
	}

	return res
}

func (w *World) hookLine(cid idseq.CharacterID, roomID string) (string, bool) {
	if w.Scripts == nil || !w.Scripts.HasHook(roomID) {
		return "", false
	}
	c := w.Characters[cid]
	out, err := w.Scripts.OnEnter(scripts.EnterContext{
		RoomID:        roomID,
		CharacterID:   uint64(c.ID),
		CharacterName: c.Name,
		Class:         c.Sheet.Class,
	})
	if err != nil || out == "" {
		return "", false
	}
	return out + "\r\n", true
}
