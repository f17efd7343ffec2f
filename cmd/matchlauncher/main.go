// File: cmd/matchlauncher/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Entrypoint for the match-launch helper, translating
// ExampleBot/launcher.cpp: builds a one-player MatchConfiguration and
// hands it to client.Launch, which waits only for writer-idle before
// disconnecting.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/RLBot/cpp-interface/client"
	"github.com/RLBot/cpp-interface/schema"
)

func main() {
	host := flag.String("host", "127.0.0.1", "RLBot server address")
	port := flag.Int("port", 23234, "RLBot server port")
	hivemind := flag.Bool("hivemind", true, "whether the launched bot runs as a hivemind")
	agentID := flag.String("agent-id", "RLBotCPP/ExampleBot", "agent id the launched bot will report")
	flag.Parse()

	config := schema.MatchConfigurationPayload{
		EnableRendering:    true,
		EnableStateSetting: true,
		Players: []schema.PlayerConfiguration{
			{
				SpawnID:  1,
				Team:     0,
				Name:     "ExampleBot",
				Variety:  schema.VarietyCustomBot,
				AgentID:  *agentID,
				Hivemind: *hivemind,
			},
		},
	}

	if err := client.Launch(*host, *port, config); err != nil {
		log.Fatalf("launch: %v", err)
	}

	if *hivemind {
		fmt.Fprintln(os.Stdout, "Please run two ExampleBot processes (one for each team)")
	} else {
		fmt.Fprintln(os.Stdout, "Please run one ExampleBot process per bot")
	}
	fmt.Fprintf(os.Stdout, "Set the RLBOT_AGENT_ID=%q environment variable when launching\n", *agentID)
}
