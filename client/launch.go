// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/pool"
	"github.com/RLBot/cpp-interface/schema"
	"github.com/RLBot/cpp-interface/transport"
)

// Launch connects to host:port, enqueues config as a MatchConfiguration,
// waits for the outbound queue to drain, then disconnects. It never
// waits for any response frame from the peer — the only signal it
// observes is writer-idle.
//
// Translates the match-start helper grounded on
// ExampleBot/launcher.cpp's startMatch call.
func Launch(host string, port int, config schema.MatchConfigurationPayload) error {
	bufPool := pool.NewBufferPool(1)

	t, err := transport.Dial(host, port, bufPool)
	if err != nil {
		return err
	}
	defer t.Close()

	done := make(chan struct{})
	go func() {
		_ = t.Run(func(frame.Message) {})
		close(done)
	}()

	if err := t.Send(&config); err != nil {
		t.Terminate()
		<-done
		return err
	}

	t.WaitWriterIdle()
	t.Terminate()
	<-done
	return nil
}
