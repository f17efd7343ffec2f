// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package runtime is the top-level message router, translating
// library/BotManagerImpl.{h,cpp}: it owns the transport's message
// handler, the bootstrap/spawn sequence, and fan-out of GamePacket/
// BallPrediction/MatchComm to each agent's worker.
package runtime

import (
	"os"
	"sync"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/control"
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/internal/logx"
	"github.com/RLBot/cpp-interface/schema"
	"github.com/RLBot/cpp-interface/transport"
	"github.com/RLBot/cpp-interface/worker"
)

// agentIDEnvVar must be set and non-empty before bots are spawned,
// translating BotManagerImpl::spawnBots's RLBOT_AGENT_ID check.
const agentIDEnvVar = "RLBOT_AGENT_ID"

// Spawner constructs one agent controlling indices on team, named name.
// In hivemind mode indices has more than one entry; otherwise exactly one.
type Spawner func(indices map[uint32]struct{}, team uint32, name string) agent.Agent

// Runtime dispatches inbound frames to a set of per-agent workers and
// forwards worker outputs back out over the transport.
type Runtime struct {
	transport     *transport.Transport
	spawn         Spawner
	batchHivemind bool
	metrics       *control.MetricsRegistry

	mu                   sync.Mutex
	workers              []*worker.Worker
	controllableTeamInfo *schema.ControllableTeamInfoPayload
	fieldInfo            *schema.FieldInfoPayload
	matchConfig          *schema.MatchConfigurationPayload
}

// New constructs a Runtime over an already-dialed transport. batchHivemind
// mirrors BotManagerImpl's construction flag: when true, one Spawner call
// receives every controlled index instead of one call per index. metrics
// may be nil to skip diagnostics recording.
func New(t *transport.Transport, spawn Spawner, batchHivemind bool, metrics *control.MetricsRegistry) *Runtime {
	return &Runtime{transport: t, spawn: spawn, batchHivemind: batchHivemind, metrics: metrics}
}

// EnqueueMessage implements worker.Dispatcher by handing p to the
// transport's outbound queue.
func (r *Runtime) EnqueueMessage(p schema.Payload) {
	if err := r.transport.Send(p); err != nil {
		logx.Errorf("runtime: send %s: %v", p.Type(), err)
	}
	if r.metrics != nil {
		r.metrics.RecordQueueDepth(r.transport.OutboundQueueDepth())
	}
}

// Run drives the transport's service loop, dispatching every inbound
// frame to handleMessage, until Terminate is called or the connection
// is lost.
func (r *Runtime) Run() error {
	return r.transport.Run(r.handleMessage)
}

// Terminate tears down all non-primary worker goroutines and stops the
// transport's service loop.
func (r *Runtime) Terminate() {
	r.mu.Lock()
	r.clearWorkersLocked()
	r.mu.Unlock()
	r.transport.Terminate()
}

func (r *Runtime) handleMessage(msg frame.Message) {
	p := msg.As(true)
	if p == nil {
		return
	}

	switch v := p.(type) {
	case *schema.ControllableTeamInfoPayload:
		logx.Infof("runtime: received ControllableTeamInfo")
		r.mu.Lock()
		r.controllableTeamInfo = v
		r.mu.Unlock()
		r.spawnBots()

	case *schema.FieldInfoPayload:
		logx.Infof("runtime: received FieldInfo")
		r.mu.Lock()
		r.fieldInfo = v
		r.mu.Unlock()
		r.spawnBots()

	case *schema.MatchConfigurationPayload:
		logx.Infof("runtime: received MatchConfiguration")
		r.mu.Lock()
		r.matchConfig = v
		r.mu.Unlock()
		r.spawnBots()

	case *schema.BallPredictionPayload:
		for _, w := range r.snapshotWorkers() {
			w.SetBallPrediction(v)
		}

	case *schema.GamePacketPayload:
		workers := r.snapshotWorkers()
		if len(workers) == 0 {
			return
		}
		for _, w := range workers[1:] {
			w.SetGamePacket(v, true)
		}
		workers[0].SetGamePacket(v, false)
		workers[0].LoopOnce()

	case *schema.MatchCommPayload:
		workers := r.snapshotWorkers()
		if len(workers) == 0 {
			return
		}
		for _, w := range workers[1:] {
			w.AddMatchComm(v, true)
		}
		workers[0].AddMatchComm(v, false)
		workers[0].LoopOnce()

	case *schema.DisconnectSignalPayload:
		r.Terminate()
	}
}

func (r *Runtime) snapshotWorkers() []*worker.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workers
}

// clearWorkersLocked must be called with r.mu held.
func (r *Runtime) clearWorkersLocked() {
	if len(r.workers) > 1 {
		for _, w := range r.workers[1:] {
			w.Terminate()
		}
	}
	r.workers = nil
}

func findPlayerConfig(configs []schema.PlayerConfiguration, spawnID int32) *schema.PlayerConfiguration {
	for i := range configs {
		if configs[i].SpawnID == spawnID {
			return &configs[i]
		}
	}
	return nil
}

// spawnBots runs the bootstrap sequence: it requires ControllableTeamInfo,
// FieldInfo, and MatchConfiguration to all have arrived, plus a non-empty
// RLBOT_AGENT_ID, before it (re)builds the worker set and reports
// InitComplete. Translates BotManagerImpl::spawnBots.
func (r *Runtime) spawnBots() {
	r.mu.Lock()
	cti, fi, mc := r.controllableTeamInfo, r.fieldInfo, r.matchConfig
	if cti == nil || fi == nil || mc == nil {
		r.mu.Unlock()
		return
	}
	r.clearWorkersLocked()

	agentID := os.Getenv(agentIDEnvVar)
	if agentID == "" {
		r.mu.Unlock()
		logx.Warningf("runtime: %s is not set, not spawning bots", agentIDEnvVar)
		return
	}

	team := uint32(cti.Team)
	seen := make(map[uint32]struct{})
	hivemindIndices := make(map[uint32]struct{})
	var hivemindName string
	var loadouts []schema.SetLoadoutPayload
	var newWorkers []*worker.Worker

	for _, c := range cti.Controllables {
		cfg := findPlayerConfig(mc.Players, c.SpawnID)
		if cfg == nil {
			logx.Warningf("runtime: controllable spawn id %d not found in match configuration", c.SpawnID)
			continue
		}
		if uint32(cfg.Team) != team {
			logx.Warningf("runtime: controllable team mismatch for spawn id %d", c.SpawnID)
			continue
		}
		if _, dup := seen[c.Index]; dup {
			logx.Warningf("runtime: duplicate controllable index %d", c.Index)
			continue
		}
		seen[c.Index] = struct{}{}

		if r.batchHivemind {
			hivemindIndices[c.Index] = struct{}{}
			if cfg.Name != "" {
				hivemindName = cfg.Name
			}
			continue
		}

		indices := map[uint32]struct{}{c.Index: {}}
		bot := r.spawn(indices, team, cfg.Name)
		if loadout, ok := bot.Loadout(c.Index); ok {
			loadouts = append(loadouts, schema.SetLoadoutPayload{Index: c.Index, Loadout: loadout})
		}
		w := worker.New(indices, team, cfg.Name, bot, fi, mc, r)
		if r.metrics != nil {
			w.SetMetrics(r.metrics)
		}
		newWorkers = append(newWorkers, w)
	}

	if r.batchHivemind && len(hivemindIndices) > 0 {
		bot := r.spawn(hivemindIndices, team, hivemindName)
		for index := range hivemindIndices {
			if loadout, ok := bot.Loadout(index); ok {
				loadouts = append(loadouts, schema.SetLoadoutPayload{Index: index, Loadout: loadout})
			}
		}
		w := worker.New(hivemindIndices, team, hivemindName, bot, fi, mc, r)
		if r.metrics != nil {
			w.SetMetrics(r.metrics)
		}
		newWorkers = append(newWorkers, w)
	}

	r.workers = newWorkers
	r.mu.Unlock()

	// The first worker is driven inline by the caller of handleMessage;
	// every other worker gets its own goroutine.
	if len(newWorkers) > 1 {
		for _, w := range newWorkers[1:] {
			go w.Run()
		}
	}

	for i := range loadouts {
		r.EnqueueMessage(&loadouts[i])
	}
	r.EnqueueMessage(&schema.InitCompletePayload{})
}
