package control

import (
	"testing"
	"time"
)

func TestConfigStore_ClientConfigRoundTrip(t *testing.T) {
	cs := NewConfigStore()
	if _, ok := cs.ClientConfig(); ok {
		t.Fatalf("expected no ClientConfig before Set")
	}

	cfg := ClientConfig{Host: "127.0.0.1", Port: 23234, AgentID: "test"}
	cs.SetClientConfig(cfg)

	got, ok := cs.ClientConfig()
	if !ok {
		t.Fatalf("expected ClientConfig after Set")
	}
	if got != cfg {
		t.Fatalf("ClientConfig() = %+v, want %+v", got, cfg)
	}
}

func TestConfigStore_OnReloadFiresOnSetConfig(t *testing.T) {
	cs := NewConfigStore()
	done := make(chan struct{})
	cs.OnReload(func() { close(done) })

	cs.SetConfig(map[string]any{"x": 1})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected reload listener to have run after SetConfig")
	}
}

func TestMetricsRegistry_WatermarkOnlyIncreases(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.RecordBufferWatermark(5)
	mr.RecordBufferWatermark(2)
	snap := mr.GetSnapshot()
	if snap["pool.watermark"] != 5 {
		t.Fatalf("watermark = %v, want 5", snap["pool.watermark"])
	}
	mr.RecordBufferWatermark(9)
	if got := mr.GetSnapshot()["pool.watermark"]; got != 9 {
		t.Fatalf("watermark = %v, want 9", got)
	}
}

func TestMetricsRegistry_IncWorkerTicksPerName(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.IncWorkerTicks("alpha")
	mr.IncWorkerTicks("alpha")
	mr.IncWorkerTicks("beta")

	snap := mr.GetSnapshot()
	if snap["worker.ticks.alpha"] != 2 {
		t.Fatalf("alpha ticks = %v, want 2", snap["worker.ticks.alpha"])
	}
	if snap["worker.ticks.beta"] != 1 {
		t.Fatalf("beta ticks = %v, want 1", snap["worker.ticks.beta"])
	}
}

func TestRegisterReloadHook_TriggerHotReloadSyncInvokesAllHooks(t *testing.T) {
	var a, b int
	RegisterReloadHook(func() { a++ })
	RegisterReloadHook(func() { b++ })

	TriggerHotReloadSync()

	if a != 1 || b != 1 {
		t.Fatalf("a=%d b=%d, want both 1", a, b)
	}
}

func TestDebugProbes_DumpStateCallsEachProbe(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("a", func() any { return 1 })
	dp.RegisterProbe("b", func() any { return "x" })

	out := dp.DumpState()
	if out["a"] != 1 || out["b"] != "x" {
		t.Fatalf("DumpState() = %+v", out)
	}
}
