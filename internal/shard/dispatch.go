package shard

import (
	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// dispatch routes one broker frame to the World (spec.md §4.1).
func (s *Server) dispatch(f wire.Frame, writeOut func(wire.SessionID, wire.Type, []byte)) {
	broadcast := s.broadcastFn(writeOut)

	switch f.Type {
	case wire.ReqAttach:
		p, err := wire.DecodeAttach(f.Payload)
		if err != nil {
			s.log.Warn("malformed ATTACH frame dropped", zap.Error(err))
			return
		}
		res := s.World.Attach(f.SessionID, p, s.World.Now(), broadcast)
		writeOut(f.SessionID, wire.RespOutput, []byte(res.ToCaller))
		broadcast(res.Room, res.ToRoom)

	case wire.ReqDetach:
		s.World.Detach(f.SessionID, broadcast)

	case wire.ReqInput:
		actor, ok := s.actorFor(f.SessionID)
		if !ok {
			writeOut(f.SessionID, wire.RespErr, []byte("not attached.\r\n"))
			return
		}
		out := Out{
			Caller: func(line string) { writeOut(f.SessionID, wire.RespOutput, []byte(line)) },
			Room: func(room, line string, except idseq.CharacterID) {
				for cid := range s.World.Occupants[room] {
					if cid == except {
						continue
					}
					if c, ok := s.World.Characters[cid]; ok && c.Controller != nil {
						writeOut(*c.Controller, wire.RespOutput, []byte(line))
					}
				}
			},
			Char: func(cid idseq.CharacterID, line string) {
				if c, ok := s.World.Characters[cid]; ok && c.Controller != nil {
					writeOut(*c.Controller, wire.RespOutput, []byte(line))
				}
			},
		}
		s.World.HandleInput(f.SessionID, actor, string(f.Payload), out, s.World.Now())

	default:
		s.log.Warn("unknown frame type dropped")
	}
}

// actorFor returns the first (and, for this world's onboarding model, only)
// character attached to sess.
func (s *Server) actorFor(sess wire.SessionID) (idseq.CharacterID, bool) {
	ids, ok := s.World.Sessions[sess]
	if !ok || len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}
