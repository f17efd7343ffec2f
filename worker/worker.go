// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package worker drives one agent's wait/process service loop,
// translating library/BotContext.{h,cpp}: a non-primary worker owns its
// own goroutine parked on a condition variable; the runtime drives the
// primary worker inline via LoopOnce on its own service thread instead.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/internal/logx"
	"github.com/RLBot/cpp-interface/schema"
)

// Dispatcher is the runtime's outbound sink, translating
// BotManagerImpl::enqueueMessage.
type Dispatcher interface {
	EnqueueMessage(p schema.Payload)
}

// Metrics receives per-tick diagnostics; a nil Metrics is valid and
// simply skips recording.
type Metrics interface {
	IncWorkerTicks(name string)
}

// outputSource exposes an agent's queued outputs. Any agent embedding
// agent.Base satisfies it automatically via promoted methods.
type outputSource interface {
	TakeMatchComms() []schema.MatchCommPayload
	TakeDesiredGameState() (schema.DesiredGameStatePayload, bool)
	TakeRenderMessages() map[int32][]schema.RenderMessage
}

// Worker buffers the latest game packet/ball prediction and pending
// match comms for one agent, waking up to call its Update/Output/
// MatchComm methods and forwarding queued outputs to the Dispatcher.
type Worker struct {
	Indices map[uint32]struct{}
	Team    uint32
	Name    string

	bot         agent.Agent
	fieldInfo   *schema.FieldInfoPayload
	matchConfig *schema.MatchConfigurationPayload
	dispatcher  Dispatcher
	metrics     Metrics

	mu             sync.Mutex
	cond           *sync.Cond
	matchCommsIn   *queue.Queue
	gamePacket     *schema.GamePacketPayload
	ballPrediction *schema.BallPredictionPayload
	quit           atomic.Bool
}

// New constructs a Worker for bot, controlling indices on team, seeded
// with the spawn-time field info and match configuration. name labels
// the worker for diagnostics; it is the spawning player config's name,
// or the hivemind name in batched mode.
func New(indices map[uint32]struct{}, team uint32, name string, bot agent.Agent,
	fieldInfo *schema.FieldInfoPayload, matchConfig *schema.MatchConfigurationPayload,
	dispatcher Dispatcher) *Worker {
	w := &Worker{
		Indices:      indices,
		Team:         team,
		Name:         name,
		bot:          bot,
		fieldInfo:    fieldInfo,
		matchConfig:  matchConfig,
		dispatcher:   dispatcher,
		matchCommsIn: queue.New(),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// SetMetrics installs a diagnostics sink, recording one tick per
// completed LoopOnce. Optional; a Worker with no Metrics set records
// nothing.
func (w *Worker) SetMetrics(m Metrics) { w.metrics = m }

// Run drives the wait/process loop until Terminate is called. Only
// non-primary workers call this; the primary worker is driven inline.
func (w *Worker) Run() {
	for !w.quit.Load() {
		w.mu.Lock()
		for !w.hasWorkLocked() && !w.quit.Load() {
			w.cond.Wait()
		}
		w.mu.Unlock()
		if w.quit.Load() {
			return
		}
		w.LoopOnce()
	}
}

func (w *Worker) hasWorkLocked() bool {
	return w.matchCommsIn.Length() > 0 || w.gamePacket != nil
}

// SetGamePacket stores the latest game packet. The primary worker's
// runtime calls this with notify=false since it drives LoopOnce itself.
func (w *Worker) SetGamePacket(gp *schema.GamePacketPayload, notify bool) {
	w.mu.Lock()
	w.gamePacket = gp
	w.mu.Unlock()
	if notify {
		w.cond.Signal()
	}
}

// SetBallPrediction stores the latest ball prediction for the next
// Update call; it never wakes the worker on its own.
func (w *Worker) SetBallPrediction(bp *schema.BallPredictionPayload) {
	w.mu.Lock()
	w.ballPrediction = bp
	w.mu.Unlock()
}

// AddMatchComm enqueues an inbound comm after the self-echo and
// team-only filters, translating BotContext::addMatchComm.
func (w *Worker) AddMatchComm(comm *schema.MatchCommPayload, notify bool) {
	if _, own := w.Indices[comm.Index]; own {
		return
	}
	if comm.TeamOnly && uint32(comm.Team) != w.Team {
		return
	}

	w.mu.Lock()
	w.matchCommsIn.Add(comm)
	w.mu.Unlock()
	if notify {
		w.cond.Signal()
	}
}

// LoopOnce runs one iteration if work is pending, returning false if
// there was nothing to do. Safe to call directly for a primary worker.
// Once a prior call has recovered a panic from the bot, the worker is
// terminated and every subsequent LoopOnce is a no-op, so a panicking
// agent cannot repeatedly unwind into its caller.
func (w *Worker) LoopOnce() bool {
	if w.quit.Load() {
		return false
	}

	w.mu.Lock()
	if !w.hasWorkLocked() {
		w.mu.Unlock()
		return false
	}

	var comms []*schema.MatchCommPayload
	for w.matchCommsIn.Length() > 0 {
		comms = append(comms, w.matchCommsIn.Remove().(*schema.MatchCommPayload))
	}
	gamePacket := w.gamePacket
	w.gamePacket = nil
	ballPrediction := w.ballPrediction
	w.mu.Unlock()

	if !w.runBot(comms, gamePacket, ballPrediction) {
		w.Terminate()
		return true
	}

	w.flushOutputs()
	if w.metrics != nil {
		w.metrics.IncWorkerTicks(w.Name)
	}
	return true
}

// runBot calls into the user agent's MatchComm/Update/Output methods
// under a deferred recover, so a panic inside bot code cannot unwind
// past the worker's loop (the primary worker runs inline on the
// Transport's own service goroutine). Returns false if a panic was
// recovered.
func (w *Worker) runBot(comms []*schema.MatchCommPayload, gamePacket *schema.GamePacketPayload,
	ballPrediction *schema.BallPredictionPayload) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("worker %s: agent panic: %v", w.Name, r)
			ok = false
		}
	}()

	for _, comm := range comms {
		w.bot.MatchComm(comm)
	}

	if gamePacket != nil {
		w.bot.Update(gamePacket, ballPrediction, w.fieldInfo, w.matchConfig)

		for index := range w.Indices {
			if int(index) >= len(gamePacket.Players) {
				continue
			}
			controller := w.bot.Output(index)
			w.dispatcher.EnqueueMessage(&schema.PlayerInputPayload{
				PlayerIndex: index,
				Controller:  controller,
			})
		}
	}
	return true
}

func (w *Worker) flushOutputs() {
	out, ok := w.bot.(outputSource)
	if !ok {
		return
	}

	for _, comm := range out.TakeMatchComms() {
		if _, own := w.Indices[comm.Index]; !own {
			logx.Warningf("worker: dropping match comm for index %d this worker does not own", comm.Index)
			continue
		}
		if uint32(comm.Team) != w.Team {
			logx.Warningf("worker: dropping match comm with mismatched team %d", comm.Team)
			continue
		}
		c := comm
		w.dispatcher.EnqueueMessage(&c)
	}

	if w.matchConfig.EnableRendering {
		for group, messages := range out.TakeRenderMessages() {
			if len(messages) == 0 {
				w.dispatcher.EnqueueMessage(&schema.RemoveRenderGroupPayload{GroupID: group})
			} else {
				w.dispatcher.EnqueueMessage(&schema.RenderGroupPayload{GroupID: group, Messages: messages})
			}
		}
	}

	if w.matchConfig.EnableStateSetting {
		if state, ok := out.TakeDesiredGameState(); ok {
			w.dispatcher.EnqueueMessage(&state)
		}
	}
}

// Terminate signals the worker's goroutine (if any) to stop.
func (w *Worker) Terminate() {
	w.quit.Store(true)
	w.cond.Signal()
}
