package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ironhaul/server/internal/sim"
)

func TestClientFollowsHostConfirmations(t *testing.T) {
	host := NewHost(HostConfig{Scenario: "maps/alpine.sc"})
	srv := httptest.NewServer(http.HandlerFunc(host.Handle))
	t.Cleanup(srv.Close)

	client, err := Dial(DialConfig{URL: websocketURL(t, srv.URL)})
	if err != nil {
		t.Fatalf("dial host: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if client.SessionID() == "" {
		t.Fatalf("expected session id from join ack")
	}
	if got := client.Scenario(); got != "maps/alpine.sc" {
		t.Fatalf("expected scenario from join ack, got %q", got)
	}
	if !client.IsNetworked() {
		t.Fatalf("expected networked client authority")
	}
	if client.ShouldProcessTick(1) {
		t.Fatalf("expected gate closed before the first confirmation")
	}

	seq, err := client.Send(sim.Command{
		Type:     sim.CommandSetPause,
		SetPause: &sim.SetPauseCommand{Paused: true},
	})
	if err != nil {
		t.Fatalf("send pause command: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected first sequence number 1, got %d", seq)
	}

	waitFor(t, func() bool { return host.PendingCommands() == 1 })

	sealed := host.CommandsFor(1)
	if len(sealed) != 1 {
		t.Fatalf("expected sealed batch of 1, got %d", len(sealed))
	}
	if sealed[0].SessionID != client.SessionID() {
		t.Fatalf("expected command attributed to session %s, got %s", client.SessionID(), sealed[0].SessionID)
	}

	waitFor(t, func() bool {
		client.Update()
		return client.ShouldProcessTick(1)
	})
	if got := client.ServerTick(); got != 1 {
		t.Fatalf("expected authoritative tick 1, got %d", got)
	}
	if got := client.TicksBehind(0); got != 1 {
		t.Fatalf("expected client 1 tick behind, got %d", got)
	}

	batch := client.CommandsFor(1)
	if len(batch) != 1 {
		t.Fatalf("expected confirmed batch of 1, got %d", len(batch))
	}
	if batch[0].Seq != sealed[0].Seq || batch[0].Tick != 1 {
		t.Fatalf("expected command stamped seq %d tick 1, got seq %d tick %d", sealed[0].Seq, batch[0].Seq, batch[0].Tick)
	}
	if batch[0].SetPause == nil || !batch[0].SetPause.Paused {
		t.Fatalf("expected pause payload to survive the round trip, got %+v", batch[0].SetPause)
	}

	// Ticks without commands still open the gate.
	if empty := host.CommandsFor(2); len(empty) != 0 {
		t.Fatalf("expected empty batch for tick 2, got %d", len(empty))
	}
	waitFor(t, func() bool {
		client.Update()
		return client.ShouldProcessTick(2)
	})

	if err := client.Heartbeat(); err != nil {
		t.Fatalf("send heartbeat: %v", err)
	}
	waitFor(t, func() bool {
		client.Update()
		return client.RTT() >= 0
	})
}

func TestDialRejectsNonWebsocketServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain http", http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	if _, err := Dial(DialConfig{URL: websocketURL(t, srv.URL)}); err == nil {
		t.Fatalf("expected dial to fail against a non-websocket server")
	}
}
