package shard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

const huhLine = "huh? (try: look, go <dir>, say <text>, inventory, equip <item>, party invite <name>, attack <target>)\r\n"

// Out collects the lines a command produces, routed to the caller, to a
// room (excluding one character, typically the actor, when except != 0),
// or to a specific character (spec.md §4.2.2, §7 "every character sees
// every error from their own actions; room-mates see only the deliberate
// broadcasts").
type Out struct {
	Caller func(line string)
	Room   func(room, line string, except idseq.CharacterID)
	Char   func(cid idseq.CharacterID, line string)
}

// HandleInput dispatches one input line for actor (the character attached
// to sess) in the fixed priority order described by spec.md §4.2.2. The
// command-to-handler mapping is a closed set — no runtime plugin dispatch
// (spec.md §9).
func (w *World) HandleInput(sess wire.SessionID, actor idseq.CharacterID, line string, out Out, nowMs int64) {
	if fn, ok := w.TakePendingConfirm(sess); ok {
		ans := strings.ToLower(strings.TrimSpace(line))
		switch ans {
		case "y", "yes", "n", "no", "cancel":
			out.Caller(fn(ans))
			return
		default:
			// Unrelated input re-prints the prompt without clearing
			// (spec.md §4.2.2).
			w.SetPendingConfirm(sess, fn)
			out.Caller(fn(""))
			return
		}
	}

	c, ok := w.Characters[actor]
	if !ok {
		return
	}

	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch {
	case verb == "look" || verb == "l":
		out.Caller(w.Rooms.RenderRoom(c.RoomID))

	case verb == "go" || isDirectionToken(verb):
		token := verb
		if verb == "go" {
			if len(args) == 0 {
				out.Caller(huhLine)
				return
			}
			token = args[0]
		}
		w.handleMove(c, token, out)

	case verb == "say":
		if len(args) == 0 {
			out.Caller(huhLine)
			return
		}
		text := strings.Join(args, " ")
		out.Caller(fmt.Sprintf("you say, \"%s\"\r\n", text))
		out.Room(c.RoomID, fmt.Sprintf("%s says, \"%s\"\r\n", c.Name, text), actor)

	case verb == "inventory" || verb == "i":
		out.Caller(w.renderInventory(c))

	case verb == "equip" || verb == "wield" || verb == "wear":
		w.handleEquip(c, args, out)

	case verb == "attack" || verb == "kill":
		w.handleAttack(c, args, out, nowMs)

	case verb == "party":
		w.handleParty(c, args, out, nowMs)

	case verb == "skill" || verb == "cast":
		w.handleSkill(c, args, out, nowMs)

	case verb == "warp":
		w.handleAdmin(c, "warp", args, out, func() {
			if len(args) == 0 || !w.Rooms.HasRoom(args[0]) {
				out.Caller("huh? (try: warp <room_id>)\r\n")
				return
			}
			src := c.RoomID
			w.Vacate(src, c.ID)
			c.RoomID = args[0]
			w.Occupy(args[0], c.ID)
			out.Caller(w.Rooms.RenderRoom(c.RoomID))
		})

	case verb == "spawn":
		w.handleAdmin(c, "spawn", args, out, func() {
			if len(args) == 0 {
				out.Caller("huh? (try: spawn <mob name>)\r\n")
				return
			}
			mob := w.SpawnMob(strings.Join(args, " "), c.RoomID)
			out.Caller(fmt.Sprintf("you spawn %s.\r\n", mob.Name))
			out.Room(c.RoomID, fmt.Sprintf("* %s appears.\r\n", mob.Name), c.ID)
		})

	case verb == "proto":
		w.handleAdmin(c, "proto", args, out, func() {
			pt, inParty := w.Parties.PartyOf(c.ID)
			if !inParty {
				pt = w.Parties.Create(c.ID)
			}
			plan := newProtoBuildPlan(fmt.Sprintf("instance.proto%d", c.ID), pt.ID)
			w.StartPartyRun(plan, nowMs, func(cid idseq.CharacterID) {
				out.Char(cid, "* the ground shifts as the instance rebuilds beneath you.\r\n")
			})
			out.Caller("proto: building a throwaway instance; stand by.\r\n")
		})

	case verb == "raft":
		w.handleRaft(c, args, out)

	case verb == "aiping":
		w.handleAdmin(c, "aiping", args, out, func() {
			out.Caller("pong.\r\n")
		})

	case verb == "uptime":
		out.Caller(fmt.Sprintf("shard uptime: %dms\r\n", w.Now()))

	default:
		out.Caller(huhLine)
	}
}

func isDirectionToken(s string) bool {
	switch s {
	case "north", "south", "east", "west", "up", "down", "n", "s", "e", "w", "u", "d":
		return true
	}
	return false
}

func (w *World) handleMove(c *Character, token string, out Out) {
	res := w.Move(c.ID, token)
	if !res.OK {
		out.Caller(res.ToMover)
		return
	}
	out.Room(res.SrcRoom, res.ToSource, c.ID)
	out.Room(res.DestRoom, res.ToDest, c.ID)
	out.Caller(res.ToMover)
	for _, m := range res.FollowerIDs {
		if mc, ok := w.Characters[m]; ok {
			out.Char(m, fmt.Sprintf("* %s follows.\r\n", c.Name))
			out.Char(m, w.Rooms.RenderRoom(mc.RoomID))
		}
	}
}

func (w *World) renderInventory(c *Character) string {
	if len(c.Inventory) == 0 {
		return "you are carrying nothing.\r\n"
	}
	names := make([]string, 0, len(c.Inventory))
	for name := range c.Inventory {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("you are carrying:\r\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s (%d)\r\n", name, c.Inventory[name])
	}
	return b.String()
}

// matchItem resolves token against c's inventory and equipped slots by
// exact match first (short-circuiting prefix matches), then unique prefix
// match; ambiguous prefix matches are reported sorted (spec.md §4.2.2,
// boundary scenario S3).
func matchItem(c *Character, token string) (name string, ambiguous []string) {
	tl := strings.ToLower(token)
	var candidates []string
	for name := range c.Inventory {
		if strings.ToLower(name) == tl {
			return name, nil
		}
		candidates = append(candidates, name)
	}
	for _, name := range c.Equipment {
		if strings.ToLower(name) == tl {
			return name, nil
		}
	}

	// No exact full-name match: fall back to matching token against any
	// whitespace-delimited word of each candidate's name, by prefix.
	var prefixed []string
	seen := make(map[string]bool)
	for _, name := range candidates {
		for _, word := range strings.Fields(strings.ToLower(name)) {
			if strings.HasPrefix(word, tl) && !seen[name] {
				prefixed = append(prefixed, name)
				seen[name] = true
				break
			}
		}
	}
	sort.Strings(prefixed)
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}
	if len(prefixed) > 1 {
		return "", prefixed
	}
	return "", nil
}

func (w *World) handleEquip(c *Character, args []string, out Out) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	token := strings.Join(args, " ")
	name, ambiguous := matchItem(c, token)
	if len(ambiguous) > 0 {
		out.Caller(fmt.Sprintf("huh? (ambiguous; try one of: %s)\r\n", strings.Join(ambiguous, ", ")))
		return
	}
	if name == "" {
		out.Caller("huh? (try: an item you are carrying)\r\n")
		return
	}
	if c.Inventory[name] <= 0 {
		out.Caller("huh? (try: an item you are carrying)\r\n")
		return
	}
	c.Equipment["weapon"] = name
	out.Caller(fmt.Sprintf("you equip %s.\r\n", name))
	out.Room(c.RoomID, fmt.Sprintf("%s equips %s.\r\n", c.Name, name), c.ID)
}

func (w *World) handleAttack(c *Character, args []string, out Out, nowMs int64) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	var targetID idseq.CharacterID
	found := false
	for cid := range w.Occupants[c.RoomID] {
		if oc, ok := w.Characters[cid]; ok && strings.ToLower(oc.Name) == target {
			targetID = cid
			found = true
			break
		}
	}
	if !found {
		out.Caller("huh? (try: attack <name of someone in the room>)\r\n")
		return
	}
	c.Autoattack = true
	c.Target = &targetID
	out.Caller("you ready yourself.\r\n")
	w.ScheduleAutoattack(c.ID, nowMs)
}

func (w *World) handleSkill(c *Character, args []string, out Out, nowMs int64) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	skillName := args[0]
	var targetID idseq.CharacterID
	if c.Target != nil {
		targetID = *c.Target
	}
	if len(args) > 1 {
		for cid := range w.Occupants[c.RoomID] {
			if oc, ok := w.Characters[cid]; ok && strings.EqualFold(oc.Name, args[1]) {
				targetID = cid
				break
			}
		}
	}
	res := w.UseSkill(c.ID, skillName, targetID, nil, nowMs, func(room, line string) {
		out.Room(room, line, c.ID)
	})
	out.Caller(res.Message)
}

func (w *World) handleAdmin(c *Character, cap string, args []string, out Out, fn func()) {
	if !w.HasCap(c, cap) {
		out.Caller(fmt.Sprintf("nope: %s\r\n", cap))
		return
	}
	fn()
}

func (w *World) handleRaft(c *Character, args []string, out Out) {
	if len(args) == 0 {
		out.Caller(huhLine)
		return
	}
	switch args[0] {
	case "watch":
		w.handleAdmin(c, "raft watch", args, out, func() {
			w.RaftWatch[c.ID] = true
			out.Caller("raft watch enabled.\r\n")
		})
	case "tail":
		w.handleAdmin(c, "raft tail", args, out, func() {
			out.Caller("raft tail: use `raft watch` for a live feed.\r\n")
		})
	default:
		out.Caller(huhLine)
	}
}
