// Package idseq hands out monotonically increasing, never-reused ids for
// shard-owned entities (characters, parties, groups).
//
// spec.md §3 requires character and party ids to be "monotonically
// increasing 64-bit integers, unique within a shard instance" — the
// teacher's generational EntityPool (internal/core/ecs) recycles freed
// slots, which would violate that uniqueness requirement, so this is a
// plain atomic counter rather than a pool.
package idseq

import "sync/atomic"

// CharacterID identifies a character for the lifetime of a shard process.
type CharacterID uint64

// PartyID identifies a party for the lifetime of a shard process.
type PartyID uint64

// GroupID identifies a replicated-log group for the lifetime of a shard process.
type GroupID uint64

// Sequence is a monotonic id generator starting at 1.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a Sequence whose first Next() call yields 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next id in the sequence, starting at 1.
func (s *Sequence) Next() uint64 {
	return s.next.Add(1)
}

// Characters generates CharacterIDs.
type Characters struct{ seq Sequence }

func NewCharacters() *Characters { return &Characters{} }

func (c *Characters) Next() CharacterID { return CharacterID(c.seq.Next()) }

// Parties generates PartyIDs.
type Parties struct{ seq Sequence }

func NewParties() *Parties { return &Parties{} }

func (p *Parties) Next() PartyID { return PartyID(p.seq.Next()) }
