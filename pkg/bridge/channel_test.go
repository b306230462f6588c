package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const channelTestPrefix = "bridge:channel_test"

func startNats(t *testing.T) *comms.Conn {
	t.Helper()
	ns, err := commsserver.NewServer(&commsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("%s - failed to create NATS server: %v", channelTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - NATS server failed to start", channelTestPrefix)
	}
	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", channelTestPrefix, err)
	}
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return nc
}

func TestNatsChannel_RequestReply(t *testing.T) {
	nc := startNats(t)
	sub, err := nc.Subscribe("interop.host.echo", func(msg *comms.Msg) {
		msg.Respond(append([]byte("echo:"), msg.Data...))
	})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", channelTestPrefix, err)
	}
	defer sub.Unsubscribe()

	ch := NewNatsChannel(nc, time.Second)
	got, err := ch.Request(context.Background(), "interop.host.echo", []byte("hi"))
	if err != nil {
		t.Fatalf("%s - request failed: %v", channelTestPrefix, err)
	}
	if string(got) != "echo:hi" {
		t.Errorf("%s - reply = %q, want echo:hi", channelTestPrefix, got)
	}
}

func TestNatsChannel_NoResponder(t *testing.T) {
	nc := startNats(t)
	ch := NewNatsChannel(nc, time.Second)
	_, err := ch.Request(context.Background(), "interop.host.nobody", []byte("{}"))
	if !errors.Is(err, ErrNoResponder) {
		t.Fatalf("%s - expected ErrNoResponder, got %v", channelTestPrefix, err)
	}
}

func TestNatsChannel_Publish(t *testing.T) {
	nc := startNats(t)
	got := make(chan []byte, 1)
	sub, err := nc.Subscribe("interop.ui.selection.replace", func(msg *comms.Msg) {
		got <- msg.Data
	})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", channelTestPrefix, err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatalf("%s - flush failed: %v", channelTestPrefix, err)
	}

	ch := NewNatsChannel(nc, time.Second)
	if err := ch.Publish(context.Background(), "interop.ui.selection.replace", []byte(`{"uids":[]}`)); err != nil {
		t.Fatalf("%s - publish failed: %v", channelTestPrefix, err)
	}

	select {
	case data := <-got:
		if string(data) != `{"uids":[]}` {
			t.Errorf("%s - data = %q", channelTestPrefix, data)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - message not delivered", channelTestPrefix)
	}
}

func TestLoopback(t *testing.T) {
	lb := NewLoopback()
	ctx := context.Background()

	if _, err := lb.Request(ctx, "a", nil); !errors.Is(err, ErrNoResponder) {
		t.Fatalf("%s - expected ErrNoResponder, got %v", channelTestPrefix, err)
	}

	lb.Handle("a", func(_ context.Context, data []byte) ([]byte, error) {
		return append(data, '!'), nil
	})
	got, err := lb.Request(ctx, "a", []byte("x"))
	if err != nil || string(got) != "x!" {
		t.Fatalf("%s - Request = %q, %v", channelTestPrefix, got, err)
	}

	var delivered []string
	lb.Subscribe("b", func(data []byte) { delivered = append(delivered, string(data)) })
	_ = lb.Publish(ctx, "b", []byte("1"))
	_ = lb.Publish(ctx, "c", []byte("2"))

	if len(delivered) != 1 || delivered[0] != "1" {
		t.Errorf("%s - delivered = %v", channelTestPrefix, delivered)
	}
	if n := len(lb.Published()); n != 2 {
		t.Errorf("%s - published %d, want 2", channelTestPrefix, n)
	}
	if n := len(lb.PublishedOn("c")); n != 1 {
		t.Errorf("%s - published on c %d, want 1", channelTestPrefix, n)
	}
	lb.Reset()
	if n := len(lb.Published()); n != 0 {
		t.Errorf("%s - after reset %d, want 0", channelTestPrefix, n)
	}
}
