// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package client is the top-level facade, translating
// include/rlbot/Client.h and include/rlbot/BotManager.h: dial the
// server, send ConnectionSettings, then drive the runtime's message
// loop on its own goroutine until Terminate or a connection error.
package client

import (
	"os"

	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/control"
	"github.com/RLBot/cpp-interface/internal/logx"
	"github.com/RLBot/cpp-interface/pool"
	"github.com/RLBot/cpp-interface/runtime"
	"github.com/RLBot/cpp-interface/schema"
	"github.com/RLBot/cpp-interface/transport"
)

// defaultHost and defaultPort mirror Client::connect's defaults.
const (
	defaultHost = "127.0.0.1"
	defaultPort = 23234
)

// Options configures Connect, translating BotManagerBase::connect's
// parameters plus the BotManager constructor's batchHivemind flag.
type Options struct {
	Host    string
	Port    int
	AgentID string // defaults to the RLBOT_AGENT_ID environment variable

	WantBallPredictions bool
	WantComms           bool
	BatchHivemind       bool

	// PreferredBuffers sizes the buffer pool's preferred free-list; zero
	// uses 32. Dial always seeds 32 preferred buffers, so a smaller value
	// keeps fewer of them in the list (rounded up to a power of two) and
	// a larger value adds none.
	PreferredBuffers int
}

func (o *Options) setDefaults() {
	if o.Host == "" {
		o.Host = defaultHost
	}
	if o.Port == 0 {
		o.Port = defaultPort
	}
	if o.AgentID == "" {
		o.AgentID = os.Getenv("RLBOT_AGENT_ID")
	}
}

// Client owns one connection's Transport, Runtime, and diagnostics.
type Client struct {
	transport *transport.Transport
	runtime   *runtime.Runtime
	pool      *pool.BufferPool

	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes

	done   chan struct{}
	runErr error
}

// Connect dials host:port, registers spawn as the per-agent bot
// factory, sends ConnectionSettings, and starts the runtime's service
// loop on its own goroutine. It fails if AgentID resolves to empty,
// mirroring ExampleBot's main.cpp check.
func Connect(opts Options, spawn runtime.Spawner) (*Client, error) {
	opts.setDefaults()
	if opts.AgentID == "" {
		return nil, api.ErrMissingAgentID
	}

	preferred := opts.PreferredBuffers
	if preferred <= 0 {
		preferred = 32
	}
	bufPool := pool.NewBufferPool(preferred)

	t, err := transport.Dial(opts.Host, opts.Port, bufPool)
	if err != nil {
		return nil, err
	}

	metrics := control.NewMetricsRegistry()
	cfg := control.NewConfigStore()
	cfg.SetClientConfig(control.ClientConfig{
		Host:                opts.Host,
		Port:                opts.Port,
		AgentID:             opts.AgentID,
		PreallocatedBuffers: preferred,
		BatchHivemind:       opts.BatchHivemind,
		WantBallPredictions: opts.WantBallPredictions,
		WantComms:           opts.WantComms,
	})

	debug := control.NewDebugProbes()
	control.RegisterPlatformProbes(debug)
	debug.RegisterProbe("pool.stats", func() any { return bufPool.Stats() })
	debug.RegisterProbe("transport.connected", func() any { return t.Connected() })
	debug.RegisterProbe("log.level", func() any { return logx.CurrentLevel() })

	// A SIGHUP-triggered reload (see cmd/examplebot) lets log verbosity
	// change without reconnecting.
	control.RegisterReloadHook(logx.Reload)

	rt := runtime.New(t, spawn, opts.BatchHivemind, metrics)

	c := &Client{
		transport: t,
		runtime:   rt,
		pool:      bufPool,
		config:    cfg,
		metrics:   metrics,
		debug:     debug,
		done:      make(chan struct{}),
	}

	if err := t.Send(&schema.ConnectionSettingsPayload{
		AgentID:             opts.AgentID,
		WantBallPredictions: opts.WantBallPredictions,
		WantComms:           opts.WantComms,
	}); err != nil {
		t.Close()
		return nil, err
	}

	go c.serviceLoop()
	return c, nil
}

func (c *Client) serviceLoop() {
	c.runErr = c.runtime.Run()
	c.metrics.RecordBufferWatermark(int(c.pool.Stats().Watermark))
	close(c.done)
}

// Connected reports whether the underlying Transport's service loop is
// currently running.
func (c *Client) Connected() bool { return c.transport.Connected() }

// Terminate requests the service loop to stop without waiting for it.
func (c *Client) Terminate() { c.runtime.Terminate() }

// Join blocks until the service loop has exited, returning any error
// it terminated with.
func (c *Client) Join() error {
	<-c.done
	return c.runErr
}

// Config returns the resolved configuration this Client was started
// with.
func (c *Client) Config() control.ClientConfig {
	cfg, _ := c.config.ClientConfig()
	return cfg
}

// Metrics returns a snapshot of the diagnostics this Client has
// recorded so far.
func (c *Client) Metrics() map[string]any {
	return c.metrics.GetSnapshot()
}

// DebugState dumps all registered debug probes, for CLI introspection.
func (c *Client) DebugState() map[string]any {
	return c.debug.DumpState()
}
