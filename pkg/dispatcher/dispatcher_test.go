package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/descriptor"
)

const dispatchTestPrefix = "dispatcher:dispatch_test"

func newTestDispatcher() (*Dispatcher, *[]string) {
	reg := descriptor.NewRegistry()
	var events []string
	reg.Register("plm.Echo", "2014_02", descriptor.Handlers{
		OnEvent: func(_ context.Context, payload string) error {
			events = append(events, payload)
			return nil
		},
		OnMethod: func(_ context.Context, payload string) (string, error) {
			if payload == "fail" {
				return "", errors.New("handler exploded")
			}
			return "echo:" + payload, nil
		},
	})
	reg.Register("plm.Silent", "2014_02", descriptor.Handlers{})
	return NewDispatcher(reg), &events
}

func TestDispatch_Routing(t *testing.T) {
	disp, events := newTestDispatcher()
	ctx := context.Background()

	tests := []struct {
		name     string
		env      bridge.Envelope
		wantOk   bool
		wantCode string
		want     string
	}{
		{"method ok", bridge.Envelope{ID: "1", FQN: "plm.Echo", Version: "2014_02", Kind: bridge.KindMethod, Payload: "hi"}, true, "", "echo:hi"},
		{"event ok", bridge.Envelope{ID: "2", FQN: "plm.Echo", Version: "2014_02", Kind: bridge.KindEvent, Payload: "ev"}, true, "", ""},
		{"handler error", bridge.Envelope{ID: "3", FQN: "plm.Echo", Version: "2014_02", Kind: bridge.KindMethod, Payload: "fail"}, false, bridge.CodeHandlerFailed, ""},
		{"unknown version", bridge.Envelope{ID: "4", FQN: "plm.Echo", Version: "2019_05", Kind: bridge.KindMethod}, false, bridge.CodeServiceNotFound, ""},
		{"unknown kind", bridge.Envelope{ID: "5", FQN: "plm.Echo", Version: "2014_02", Kind: "poke"}, false, bridge.CodeInvalidRequest, ""},
		{"missing fqn", bridge.Envelope{ID: "6", Version: "2014_02", Kind: bridge.KindEvent}, false, bridge.CodeInvalidRequest, ""},
		{"no handler", bridge.Envelope{ID: "7", FQN: "plm.Silent", Version: "2014_02", Kind: bridge.KindMethod}, false, bridge.CodeServiceNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			resp := disp.Dispatch(ctx, &env)
			if resp.ID != tt.env.ID {
				t.Errorf("%s - ID = %q, want %q", dispatchTestPrefix, resp.ID, tt.env.ID)
			}
			if resp.Ok != tt.wantOk {
				t.Fatalf("%s - Ok = %v, want %v (%+v)", dispatchTestPrefix, resp.Ok, tt.wantOk, resp.Error)
			}
			if !tt.wantOk {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("%s - error = %+v, want code %s", dispatchTestPrefix, resp.Error, tt.wantCode)
				}
				return
			}
			if resp.Result != tt.want {
				t.Errorf("%s - Result = %q, want %q", dispatchTestPrefix, resp.Result, tt.want)
			}
		})
	}

	if len(*events) != 1 || (*events)[0] != "ev" {
		t.Errorf("%s - events = %v", dispatchTestPrefix, *events)
	}
}

func TestHandleMessage_MalformedJSON(t *testing.T) {
	disp, _ := newTestDispatcher()
	out := disp.HandleMessage(context.Background(), []byte(`{not json`))

	var resp bridge.Reply
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("%s - reply is not json: %v", dispatchTestPrefix, err)
	}
	if resp.Ok || resp.Error == nil || resp.Error.Code != bridge.CodeInvalidRequest {
		t.Errorf("%s - expected INVALID_REQUEST failure, got %+v", dispatchTestPrefix, resp)
	}
}

func TestHandleMessage_RoundTrip(t *testing.T) {
	disp, _ := newTestDispatcher()
	in, _ := json.Marshal(bridge.Envelope{ID: "m1", FQN: "plm.Echo", Version: "2014_02", Kind: bridge.KindMethod, Payload: "x"})
	out := disp.HandleMessage(context.Background(), in)

	var resp bridge.Reply
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("%s - reply is not json: %v", dispatchTestPrefix, err)
	}
	if !resp.Ok || resp.Result != "echo:x" || resp.ID != "m1" {
		t.Errorf("%s - unexpected reply %+v", dispatchTestPrefix, resp)
	}
}
