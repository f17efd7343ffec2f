// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload propagation.

package control

import (
	"sync"
)

// ClientConfig is the resolved set of tunables a Transport/Runtime was
// actually constructed with, recorded so CLI entrypoints and tests can
// report what is in effect rather than what was requested.
// SocketBufferSize is not filled in by client.Connect and reads as zero.
type ClientConfig struct {
	Host                 string
	Port                 int
	AgentID              string
	SocketBufferSize     int
	PreallocatedBuffers  int
	BatchHivemind        bool
	WantBallPredictions  bool
	WantComms            bool
}

const clientConfigKey = "client"

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and dispatches reload if needed.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.dispatchReload()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all listeners, each on its own goroutine; it
// does not wait for them to finish.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
}

// SetClientConfig records the resolved ClientConfig, dispatching reload
// the same as any other SetConfig call.
func (cs *ConfigStore) SetClientConfig(cfg ClientConfig) {
	cs.SetConfig(map[string]any{clientConfigKey: cfg})
}

// ClientConfig returns the last recorded ClientConfig, if any.
func (cs *ConfigStore) ClientConfig() (ClientConfig, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[clientConfigKey]
	if !ok {
		return ClientConfig{}, false
	}
	cfg, ok := v.(ClientConfig)
	return cfg, ok
}
