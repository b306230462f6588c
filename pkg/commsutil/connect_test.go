package commsutil

import (
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "test-client")
	if err == nil {
		nc.Close()
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnect_StatusLifecycle(t *testing.T) {
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - NATS server failed to start", connectTestPrefix)
	}
	defer ns.Shutdown()

	nc, err := Connect(ns.ClientURL(), "interop-test")
	if err != nil {
		t.Fatalf("%s - Connect: %v", connectTestPrefix, err)
	}
	if got := Status(nc); got != "CONNECTED" {
		t.Errorf("%s - Status = %q, want CONNECTED", connectTestPrefix, got)
	}
	if nc.Opts.Name != "interop-test" || nc.Opts.MaxReconnect != -1 {
		t.Errorf("%s - options not applied: name %q maxReconnect %d", connectTestPrefix, nc.Opts.Name, nc.Opts.MaxReconnect)
	}
	nc.Close()
	if got := Status(nc); got != "CLOSED" {
		t.Errorf("%s - Status after Close = %q, want CLOSED", connectTestPrefix, got)
	}
	if got := Status(nil); got != "DISCONNECTED" {
		t.Errorf("%s - Status(nil) = %q, want DISCONNECTED", connectTestPrefix, got)
	}
}
