package shard

import (
	"fmt"

	"github.com/fanzynoodle/slopmud/internal/wire"
)

// AttachResult is what Attach emits: lines for the new character, and for
// the room the new character just entered.
type AttachResult struct {
	ToCaller string
	ToRoom   string
	Room     string
}

// Attach implements REQ_ATTACH (spec.md §4.1, §4.2.1). It is idempotent
// per session id: an already-known session is detached first, announcing
// its departure, before the new character is created. bot_ever does not
// carry across a Detach — each Attach starts a fresh Character, which is
// exactly what round-trip 8 requires.
func (w *World) Attach(sess wire.SessionID, p wire.AttachPayload, nowMs int64, broadcastDeparture func(room, line string)) AttachResult {
	if _, known := w.Sessions[sess]; known {
		w.detachSession(sess, broadcastDeparture)
	}

	cid := w.NextCharacterID()
	principal := ""
	authCaps := []string(nil)
	// The broker-asserted auth blob is opaque at this layer; a real
	// deployment's broker decodes it into principal/authCaps before
	// attaching. Absent auth (p.Auth == nil) yields an anonymous
	// principal with no capabilities.
	if p.Auth != nil {
		principal = "acct:" + p.Name
	}

	c := NewCharacter(cid, p.Name, principal, authCaps, p.IsBot)
	if p.IsBot {
		c.MarkBot(nowMs)
	}
	c.Controller = &sess
	c.CreatedBy = &sess
	if p.Race != "" && p.Class != "" {
		c.Sheet.Race = p.Race
		c.Sheet.Class = p.Class
		c.Sheet.Sex = p.Sex
		c.Sheet.Pronouns = p.Pronouns
		c.BuildComplete = true
	}

	start := w.Rooms.StartRoom()
	c.RoomID = start
	w.Occupy(start, cid)
	w.Characters[cid] = c
	w.Sessions[sess] = append(w.Sessions[sess], cid)

	return AttachResult{
		ToCaller: w.Rooms.RenderRoom(start),
		ToRoom:   fmt.Sprintf("* %s arrives.\r\n", c.Name),
		Room:     start,
	}
}

// Detach implements REQ_DETACH: garbage-collects every character owned by
// sess, their parties and invites (spec.md §2).
func (w *World) Detach(sess wire.SessionID, broadcastDeparture func(room, line string)) {
	w.detachSession(sess, broadcastDeparture)
}

func (w *World) detachSession(sess wire.SessionID, broadcastDeparture func(room, line string)) {
	ids, ok := w.Sessions[sess]
	if !ok {
		return
	}
	for _, cid := range ids {
		c, exists := w.Characters[cid]
		if !exists {
			continue
		}
		w.Vacate(c.RoomID, cid)
		w.LeaveParty(cid)
		w.Parties.ClearInvite(cid)
		delete(w.RaftWatch, cid)
		delete(w.Characters, cid)
		if broadcastDeparture != nil {
			broadcastDeparture(c.RoomID, fmt.Sprintf("* %s left\r\n", c.Name))
		}
	}
	delete(w.Sessions, sess)
	delete(w.pendingConfirm, sess)
}
