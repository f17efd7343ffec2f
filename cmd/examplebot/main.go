// File: cmd/examplebot/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Entrypoint for the example agent, translating ExampleBot/main.cpp:
// requires RLBOT_AGENT_ID, connects, then blocks until the connection
// ends.

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/client"
	"github.com/RLBot/cpp-interface/control"
)

func main() {
	host := flag.String("host", "127.0.0.1", "RLBot server address")
	port := flag.Int("port", 23234, "RLBot server port")
	hivemind := flag.Bool("hivemind", false, "batch all controlled indices into one agent instance")
	wantBallPrediction := flag.Bool("ball-prediction", true, "request ball prediction frames")
	flag.Parse()

	agentID := os.Getenv("RLBOT_AGENT_ID")
	if agentID == "" {
		log.Fatal("Missing environment variable RLBOT_AGENT_ID")
	}

	spawn := func(indices map[uint32]struct{}, team uint32, name string) agent.Agent {
		return newExampleBot(indices, team, name)
	}

	c, err := client.Connect(client.Options{
		Host:                *host,
		Port:                *port,
		AgentID:             agentID,
		WantBallPredictions: *wantBallPrediction,
		WantComms:           true,
		BatchHivemind:       *hivemind,
	}, spawn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	go func() {
		for range sigCh {
			log.Printf("SIGHUP received, reloading (log level=%v)", c.DebugState()["log.level"])
			control.TriggerHotReload()
		}
	}()

	if err := c.Join(); err != nil {
		log.Printf("service loop exited: %v", err)
	}
}
