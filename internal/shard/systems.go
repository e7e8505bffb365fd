package shard

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/core/event"
	"github.com/fanzynoodle/slopmud/internal/core/system"
	"github.com/fanzynoodle/slopmud/internal/idseq"
	"github.com/fanzynoodle/slopmud/internal/wire"
)

// eventDispatchSystem is PhaseEvents: it swaps the world's event bus
// buffers and delivers last tick's domain events to their subscribers
// (spec.md §5). Events emitted during a tick are therefore only observed
// on the following tick, per the bus's own double-buffering contract.
type eventDispatchSystem struct{ w *World }

func (eventDispatchSystem) Phase() system.Phase { return system.PhaseEvents }
func (s eventDispatchSystem) Update(time.Duration) {
	s.w.Bus.SwapBuffers()
	s.w.Bus.DispatchAll()
}

// regenSystem is PhaseRegen: per-character resource regeneration.
type regenSystem struct{ w *World }

func (regenSystem) Phase() system.Phase { return system.PhaseRegen }
func (s regenSystem) Update(time.Duration) { s.w.RegenAll(s.w.Now()) }

// schedulerDrainSystem is PhaseSchedulerDrain: fires every scheduler event
// due by now (spec.md §4.2.4 steps 2-3). broadcast/writeOut are rebound
// per tick by Server.tick since they close over the currently-connected
// broker socket.
type schedulerDrainSystem struct{ srv *Server }

func (schedulerDrainSystem) Phase() system.Phase { return system.PhaseSchedulerDrain }
func (s schedulerDrainSystem) Update(time.Duration) {
	now := s.srv.World.Now()
	for _, ev := range s.srv.World.Scheduler.DrainDue(now) {
		s.srv.fireEvent(ev, s.srv.curBroadcast, s.srv.curWriteOut)
	}
}

// outputSystem is PhaseOutput: flushes whatever PhaseEvents' subscribers
// queued this tick to their owning sessions.
type outputSystem struct{ srv *Server }

func (outputSystem) Phase() system.Phase { return system.PhaseOutput }
func (s outputSystem) Update(time.Duration) { s.srv.flushOutput() }

// queuedLine is one line of output queued by an event-bus subscriber for
// delivery at the next PhaseOutput.
type queuedLine struct {
	cid  idseq.CharacterID
	line string
}

// queueOutput enqueues line for delivery to cid's controller, if any, at
// the next PhaseOutput.
func (s *Server) queueOutput(cid idseq.CharacterID, line string) {
	s.outputQueue = append(s.outputQueue, queuedLine{cid: cid, line: line})
}

// flushOutput delivers and clears the queued output lines built up this
// tick. Outside of a live connection (no writer bound yet) it just drops
// them, matching Serve's "broker disconnected, drop session state" stance.
func (s *Server) flushOutput() {
	defer func() { s.outputQueue = s.outputQueue[:0] }()
	if s.curWriteOut == nil {
		return
	}
	for _, q := range s.outputQueue {
		c, ok := s.World.Characters[q.cid]
		if !ok || c.Controller == nil {
			continue
		}
		s.curWriteOut(*c.Controller, wire.RespOutput, []byte(q.line))
	}
}

// registerSystems builds s.runner's four-phase pump and subscribes the
// domain event handlers that feed PhaseOutput (spec.md §5). Called once
// from NewServer.
func (s *Server) registerSystems() {
	event.Subscribe(s.World.Bus, func(e event.CharacterKilled) {
		victim := "something"
		if c, ok := s.World.Characters[e.VictimID]; ok {
			victim = c.Name
		}
		s.queueOutput(e.KillerID, fmt.Sprintf("%s falls.\r\n", victim))
		s.log.Info("character killed", zap.Uint64("victim", uint64(e.VictimID)), zap.Uint64("killer", uint64(e.KillerID)), zap.String("room", e.RoomID))
	})
	event.Subscribe(s.World.Bus, func(e event.LevelUp) {
		s.queueOutput(e.CharacterID, fmt.Sprintf("you are now level %d!\r\n", e.NewLevel))
	})
	event.Subscribe(s.World.Bus, func(e event.PartyDisbanded) {
		s.log.Info("party disbanded", zap.Uint64("party", uint64(e.PartyID)))
	})
	event.Subscribe(s.World.Bus, func(e event.GroupLogAppended) {
		s.log.Debug("group log replicated", zap.Uint64("index", e.Index))
	})

	s.runner = system.NewRunner()
	s.runner.Register(eventDispatchSystem{w: s.World})
	s.runner.Register(regenSystem{w: s.World})
	s.runner.Register(schedulerDrainSystem{srv: s})
	s.runner.Register(outputSystem{srv: s})
}
