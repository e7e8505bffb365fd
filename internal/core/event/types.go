package event

import "github.com/fanzynoodle/slopmud/internal/idseq"

// CharacterKilled is emitted when a character's hp reaches zero.
type CharacterKilled struct {
	VictimID idseq.CharacterID
	KillerID idseq.CharacterID
	RoomID   string
}

// LevelUp is emitted when a character gains a level from XP.
type LevelUp struct {
	CharacterID idseq.CharacterID
	NewLevel    int
}

// GroupLogAppended is emitted whenever the replicated group log accepts a
// new envelope. The shard's subscriber logs it; `raft watch` lines are sent
// directly by World.AppendGroupEntry, not through this event.
type GroupLogAppended struct {
	Index uint64
	JSON  string
}

// PartyDisbanded is emitted when a party's member set empties.
type PartyDisbanded struct {
	PartyID idseq.PartyID
}
