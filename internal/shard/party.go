package shard

import "github.com/fanzynoodle/slopmud/internal/idseq"

// Party is a set of characters sharing XP and (optionally) movement, with
// a single leader drawn from its members (spec.md §3).
type Party struct {
	ID      idseq.PartyID
	Leader  idseq.CharacterID
	Members map[idseq.CharacterID]bool
}

// Invite is a pending party invitation (spec.md §3).
type Invite struct {
	PartyID   idseq.PartyID
	Inviter   idseq.CharacterID
	ExpiresMs int64
}

// parties owns the Party/Invite/reverse-index state for a World.
type parties struct {
	byID     map[idseq.PartyID]*Party
	partyOf  map[idseq.CharacterID]idseq.PartyID
	invites  map[idseq.CharacterID][]Invite
	gen      *idseq.Parties
}

func newParties(gen *idseq.Parties) *parties {
	return &parties{
		byID:    make(map[idseq.PartyID]*Party),
		partyOf: make(map[idseq.CharacterID]idseq.PartyID),
		invites: make(map[idseq.CharacterID][]Invite),
		gen:     gen,
	}
}

// Create forms a new party with leader as its sole member.
func (p *parties) Create(leader idseq.CharacterID) *Party {
	pt := &Party{ID: p.gen.Next(), Leader: leader, Members: map[idseq.CharacterID]bool{leader: true}}
	p.byID[pt.ID] = pt
	p.partyOf[leader] = pt.ID
	return pt
}

// PartyOf returns the party a character belongs to, if any.
func (p *parties) PartyOf(cid idseq.CharacterID) (*Party, bool) {
	pid, ok := p.partyOf[cid]
	if !ok {
		return nil, false
	}
	return p.byID[pid], true
}

// Join adds cid to an existing party.
func (p *parties) Join(pid idseq.PartyID, cid idseq.CharacterID) {
	pt, ok := p.byID[pid]
	if !ok {
		return
	}
	pt.Members[cid] = true
	p.partyOf[cid] = pid
}

// Leave removes cid from its party, transferring leadership to an
// arbitrary surviving member if cid was the leader, and destroying the
// party if it empties (spec.md §3). It reports the party id and whether
// the party was disbanded as a result.
func (p *parties) Leave(cid idseq.CharacterID) (pid idseq.PartyID, disbanded bool) {
	pid, ok := p.partyOf[cid]
	if !ok {
		return 0, false
	}
	pt := p.byID[pid]
	delete(pt.Members, cid)
	delete(p.partyOf, cid)
	delete(p.invites, cid)

	if len(pt.Members) == 0 {
		delete(p.byID, pid)
		return pid, true
	}
	if pt.Leader == cid {
		for m := range pt.Members {
			pt.Leader = m
			break
		}
	}
	return pid, false
}

// Invite records a pending invite for cid, replacing any prior one.
func (p *parties) Invite(cid idseq.CharacterID, inv Invite) {
	p.invites[cid] = []Invite{inv}
}

// PendingInvite returns cid's pending invite, if any.
func (p *parties) PendingInvite(cid idseq.CharacterID) (Invite, bool) {
	invs, ok := p.invites[cid]
	if !ok || len(invs) == 0 {
		return Invite{}, false
	}
	return invs[0], true
}

// ClearInvite removes cid's pending invite (accept, kick, or removal).
func (p *parties) ClearInvite(cid idseq.CharacterID) {
	delete(p.invites, cid)
}

// expireInvites drops every pending invite whose TTL has elapsed, called
// periodically off the housekeeping tick so a declined-by-silence invite
// doesn't linger forever in memory.
func (p *parties) expireInvites(nowMs int64) {
	for cid, invs := range p.invites {
		if len(invs) > 0 && invs[0].ExpiresMs < nowMs {
			delete(p.invites, cid)
		}
	}
}
