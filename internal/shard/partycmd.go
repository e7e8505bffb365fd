package shard

import (
	"fmt"
	"strings"

	"github.com/fanzynoodle/slopmud/internal/idseq"
)

const inviteTTLMs = 60_000

// handleParty dispatches the `party ...` subcommands (spec.md §3 Parties
// and invites).
func (w *World) handleParty(c *Character, args []string, out Out, nowMs int64) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	sub := strings.ToLower(args[0])
	rest := args[1:]

	switch sub {
	case "invite":
		w.partyInvite(c, rest, out, nowMs)
	case "accept":
		w.partyAccept(c, out, nowMs)
	case "decline":
		w.Parties.ClearInvite(c.ID)
		out.Caller("invite declined.\r\n")
	case "leave":
		w.partyLeave(c, out)
	case "kick":
		w.partyKick(c, rest, out)
	case "follow":
		c.FollowLeader = true
		out.Caller("you will now follow your party leader.\r\n")
	case "unfollow":
		c.FollowLeader = false
		out.Caller("you will no longer follow your party leader.\r\n")
	case "run":
		w.partyRun(c, out, nowMs)
	default:
		out.Caller(huhLine)
	}
}

// partyRun builds a throwaway dynamic instance and leads the caller's
// party into it (spec.md §4.2.5). Only the party leader may trigger a run.
func (w *World) partyRun(c *Character, out Out, nowMs int64) {
	pt, inParty := w.Parties.PartyOf(c.ID)
	if !inParty {
		out.Caller("you are not in a party.\r\n")
		return
	}
	if pt.Leader != c.ID {
		out.Caller("nope: party.run\r\n")
		return
	}

	plan := newProtoBuildPlan(fmt.Sprintf("instance.party%d", pt.ID), pt.ID)
	w.StartPartyRun(plan, nowMs, func(cid idseq.CharacterID) {
		out.Char(cid, "* the ground shifts as the instance rebuilds beneath you.\r\n")
	})
	out.Caller("you lead the party into a proto run; stand by.\r\n")
	for m := range pt.Members {
		if m != c.ID {
			out.Char(m, fmt.Sprintf("* %s leads the party into a proto run.\r\n", c.Name))
		}
	}
}

func (w *World) partyInvite(c *Character, args []string, out Out, nowMs int64) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	name := strings.Join(args, " ")
	var target *Character
	for cid := range w.Occupants[c.RoomID] {
		if oc, ok := w.Characters[cid]; ok && strings.EqualFold(oc.Name, name) {
			target = oc
			break
		}
	}
	if target == nil {
		out.Caller("huh? (try: party invite <name of someone in the room>)\r\n")
		return
	}

	pt, inParty := w.Parties.PartyOf(c.ID)
	if inParty && pt.Leader != c.ID {
		out.Caller("nope: party.invite\r\n")
		return
	}
	if !inParty {
		pt = w.Parties.Create(c.ID)
	}

	w.Parties.Invite(target.ID, Invite{PartyID: pt.ID, Inviter: c.ID, ExpiresMs: nowMs + inviteTTLMs})
	out.Caller(fmt.Sprintf("you invite %s to your party.\r\n", target.Name))
	out.Char(target.ID, fmt.Sprintf("* %s invites you to a party. (party accept / party decline)\r\n", c.Name))
}

func (w *World) partyAccept(c *Character, out Out, nowMs int64) {
	inv, ok := w.Parties.PendingInvite(c.ID)
	if !ok || inv.ExpiresMs < nowMs {
		out.Caller("you have no pending invite.\r\n")
		return
	}
	w.Parties.ClearInvite(c.ID)
	w.Parties.Join(inv.PartyID, c.ID)
	out.Caller("you join the party.\r\n")
	if _, ok := w.Characters[inv.Inviter]; ok {
		out.Char(inv.Inviter, fmt.Sprintf("* %s joins your party.\r\n", c.Name))
	}
}

func (w *World) partyLeave(c *Character, out Out) {
	if _, ok := w.Parties.PartyOf(c.ID); !ok {
		out.Caller("you are not in a party.\r\n")
		return
	}
	w.LeaveParty(c.ID)
	out.Caller("you leave the party.\r\n")
}

func (w *World) partyKick(c *Character, args []string, out Out) {
	pt, inParty := w.Parties.PartyOf(c.ID)
	if !inParty || pt.Leader != c.ID {
		out.Caller("nope: party.kick\r\n")
		return
	}
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	name := strings.Join(args, " ")
	var targetID idseq.CharacterID
	found := false
	for m := range pt.Members {
		if mc, ok := w.Characters[m]; ok && strings.EqualFold(mc.Name, name) {
			targetID = m
			found = true
			break
		}
	}
	if !found || targetID == c.ID {
		out.Caller("huh? (try: party kick <name of a party member>)\r\n")
		return
	}
	w.LeaveParty(targetID)
	out.Caller(fmt.Sprintf("you kick %s from the party.\r\n", name))
	out.Char(targetID, "* you have been kicked from the party.\r\n")
}
