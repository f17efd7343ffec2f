package client_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/client"
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/schema"
)

// testAgent satisfies agent.Agent with an Update that does nothing,
// since these tests only assert on the outbound handshake frame.
type testAgent struct {
	*agent.Base
}

func (a *testAgent) Update(*schema.GamePacketPayload, *schema.BallPredictionPayload,
	*schema.FieldInfoPayload, *schema.MatchConfigurationPayload) {
}

// listen opens a loopback TCP listener and returns its host/port, for
// dialing client.Connect/client.Launch against a scripted peer.
func listen(t *testing.T) (net.Listener, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	return ln, "127.0.0.1", addr.Port
}

// readFrame reads exactly one length-prefixed frame off conn.
func readFrame(t *testing.T, conn net.Conn) (schema.MessageType, []byte) {
	t.Helper()
	header := make([]byte, frame.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	typ, n, err := frame.PeekHeader(header)
	if err != nil {
		t.Fatalf("PeekHeader: %v", err)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return typ, body
}

func TestConnect_SendsConnectionSettingsAndStaysConnected(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	spawn := func(indices map[uint32]struct{}, team uint32, name string) agent.Agent {
		return &testAgent{Base: agent.NewBase(indices, team, name)}
	}

	c, err := client.Connect(client.Options{
		Host:                host,
		Port:                port,
		AgentID:             "test-agent",
		WantBallPredictions: true,
		WantComms:           true,
	}, spawn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Terminate()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never accepted a connection")
	}
	defer conn.Close()

	typ, body := readFrame(t, conn)
	if typ != schema.ConnectionSettings {
		t.Fatalf("first frame type = %v, want ConnectionSettings", typ)
	}
	var settings schema.ConnectionSettingsPayload
	if err := settings.Unmarshal(body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if settings.AgentID != "test-agent" || !settings.WantBallPredictions || !settings.WantComms {
		t.Fatalf("ConnectionSettings = %+v", settings)
	}

	if !c.Connected() {
		t.Fatalf("Connected() = false right after Connect")
	}
	if got := c.Config().AgentID; got != "test-agent" {
		t.Fatalf("Config().AgentID = %q, want test-agent", got)
	}
}

func TestConnect_RequiresAgentID(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "")
	_, err := client.Connect(client.Options{Host: "127.0.0.1", Port: 1}, nil)
	if err == nil {
		t.Fatalf("Connect() error = nil, want error for missing agent id")
	}
}

func TestLaunch_SendsMatchConfigurationThenDisconnects(t *testing.T) {
	ln, host, port := listen(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	config := schema.MatchConfigurationPayload{
		Players: []schema.PlayerConfiguration{{SpawnID: 1, Team: 0, Name: "Bot"}},
	}

	launchErr := make(chan error, 1)
	go func() { launchErr <- client.Launch(host, port, config) }()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never accepted a connection")
	}
	defer conn.Close()

	typ, body := readFrame(t, conn)
	if typ != schema.MatchConfiguration {
		t.Fatalf("frame type = %v, want MatchConfiguration", typ)
	}
	var got schema.MatchConfigurationPayload
	if err := got.Unmarshal(body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Players) != 1 || got.Players[0].Name != "Bot" {
		t.Fatalf("MatchConfiguration = %+v", got)
	}

	select {
	case err := <-launchErr:
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Launch did not return after writer drained")
	}
}
