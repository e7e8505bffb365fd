package shard

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/core/system"
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/scheduler"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

const maxSleep = 24 * time.Hour

// Server is the shard's broker-facing RPC endpoint: a single-threaded
// cooperative loop interleaving broker-socket reads with due-event
// processing (spec.md §5). It owns the one *World instance for the
// process's lifetime; there is no shared-memory concurrency over it. Each
// tick runs as a PhaseEvents->PhaseRegen->PhaseSchedulerDrain->PhaseOutput
// pump over runner (internal/core/system).
type Server struct {
	World *World
	log   *zap.Logger

	runner *system.Runner

	// curWriteOut/curBroadcast close over whichever broker connection is
	// presently being served; schedulerDrainSystem and outputSystem read
	// them each tick rather than taking them as call parameters, since
	// system.System.Update only receives a time.Duration.
	curWriteOut  func(wire.SessionID, wire.Type, []byte)
	curBroadcast func(room, line string)

	outputQueue []queuedLine
}

// NewServer wraps w as an RPC-served shard.
func NewServer(w *World, log *zap.Logger) *Server {
	s := &Server{World: w, log: log}
	s.registerSystems()
	return s
}

// Serve accepts broker connections on ln, serving one at a time. When the
// broker disconnects, the shard drops all in-memory session state and
// returns to Accept, per spec.md §5 "the shard runs until the broker
// disconnects...the process may be externally restarted".
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept broker connection: %w", err)
		}
		s.log.Info("broker connected", zap.String("remote", conn.RemoteAddr().String()))
		s.serveConn(conn)
		s.log.Warn("broker disconnected; dropping session state")
		for sess := range s.World.Sessions {
			s.World.detachSession(sess, nil)
		}
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	frames := make(chan wire.Frame, 64)
	errs := make(chan error, 1)
	go func() {
		for {
			f, err := wire.ReadFrame(conn)
			if err != nil {
				errs <- err
				return
			}
			frames <- f
		}
	}()

	writeOut := func(sess wire.SessionID, typ wire.Type, payload []byte) {
		if err := wire.WriteFrame(conn, wire.Frame{Type: typ, SessionID: sess, Payload: payload}); err != nil {
			s.log.Warn("write frame failed", zap.Error(err))
		}
	}

	for {
		sleep := s.sleepDuration()
		select {
		case f, ok := <-frames:
			if !ok {
				return
			}
			s.dispatch(f, writeOut)
			s.tick(writeOut)
		case err := <-errs:
			s.log.Warn("broker read failed", zap.Error(err))
			return
		case <-time.After(sleep):
			s.tick(writeOut)
		}
	}
}

func (s *Server) sleepDuration() time.Duration {
	now := s.World.Now()
	due, ok := s.World.Scheduler.PeekDue()
	if !ok {
		return maxSleep
	}
	if due <= now {
		return 0
	}
	d := time.Duration(due-now) * time.Millisecond
	if d > maxSleep {
		return maxSleep
	}
	return d
}

// tick runs one PhaseEvents->PhaseRegen->PhaseSchedulerDrain->PhaseOutput
// pass of the shard loop (spec.md §4.2.4 steps 2-3, §5).
func (s *Server) tick(writeOut func(wire.SessionID, wire.Type, []byte)) {
	s.curWriteOut = writeOut
	s.curBroadcast = s.broadcastFn(writeOut)
	s.runner.Tick(0)
}

func (s *Server) fireEvent(ev scheduler.Event, broadcast func(room, line string), writeOut func(wire.SessionID, wire.Type, []byte)) {
	now := s.World.Now()
	sendToChar := func(cid idseq.CharacterID, line string) {
		if c, ok := s.World.Characters[cid]; ok && c.Controller != nil {
			writeOut(*c.Controller, wire.RespOutput, []byte(line))
		}
	}

	switch ev.Kind {
	case scheduler.KindCombatAct:
		ids, ok := ev.IDs.(autoattackIDs)
		if !ok {
			return
		}
		s.World.FireCombatAct(ids.Attacker, now, broadcast, func(victim, killer idseq.CharacterID) {
			const killXP = 10
			room := ""
			if killerChar, ok := s.World.Characters[killer]; ok {
				room = killerChar.RoomID
			}
			s.World.SplitPartyXP(killer, room, killXP, func(cid idseq.CharacterID, share int64) {
				sendToChar(cid, fmt.Sprintf("party xp: +%d.\r\n", share))
			})
		})
	case scheduler.KindPartyBuildNext:
		ids, ok := ev.IDs.(partyBuildIDs)
		if !ok {
			return
		}
		s.World.FirePartyBuildNext(ids, now, func(members []idseq.CharacterID) {
			for _, m := range members {
				sendToChar(m, s.World.Rooms.RenderRoom(ids.Plan.StartRoom))
			}
		})
	case scheduler.KindBossTelegraph:
		ids, ok := ev.IDs.(bossTelegraphIDs)
		if !ok || s.World.Boss == nil || s.World.Boss.ID != ids.Boss {
			return
		}
		s.World.BossTelegraph(s.World.Boss, now, broadcast)
	case scheduler.KindBossResolve:
		ids, ok := ev.IDs.(bossResolveIDs)
		if !ok || s.World.Boss == nil || s.World.Boss.ID != ids.Boss {
			return
		}
		s.World.BossResolve(s.World.Boss, ids.Seq, now, broadcast, func(cid idseq.CharacterID) {
			sendToChar(cid, fmt.Sprintf("the working slams into you for %d.\r\n", bossAoeDamage))
		})
	case scheduler.KindRoomMessage:
		ids, ok := ev.IDs.(roomMessageIDs)
		if !ok {
			return
		}
		s.World.FireRoomMessage(ids, now, broadcast)
	case scheduler.KindEnsureSingletonNPC:
		ids, ok := ev.IDs.(ensureSingletonIDs)
		if !ok {
			return
		}
		s.World.FireEnsureSingletonNPC(ids, now)
	case scheduler.KindMobWander:
		ids, ok := ev.IDs.(mobWanderIDs)
		if !ok {
			return
		}
		s.World.FireMobWander(ids, now, broadcast)
	case scheduler.KindTick:
		ids, ok := ev.IDs.(tickIDs)
		if !ok {
			return
		}
		s.World.FireTick(ids, now)
	}
}

// broadcastFn emits line to every controlled character currently in room.
func (s *Server) broadcastFn(writeOut func(wire.SessionID, wire.Type, []byte)) func(room, line string) {
	return func(room, line string) {
		for cid := range s.World.Occupants[room] {
			c, ok := s.World.Characters[cid]
			if !ok || c.Controller == nil {
				continue
			}
			writeOut(*c.Controller, wire.RespOutput, []byte(line))
		}
	}
}
