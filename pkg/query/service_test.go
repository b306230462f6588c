package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/callable"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/descriptor"
	"github.com/morezero/host-interop/pkg/version"
)

func newTestService(t *testing.T, declared bool) (*Service, *bridge.Loopback) {
	t.Helper()
	reg := descriptor.NewRegistry()
	if declared {
		reg.DeclareHost([]descriptor.Key{{FullyQualifiedName: FQN, Version: version.V2014_02}})
	}
	lb := bridge.NewLoopback()
	svc := NewService(&callable.Host{Registry: reg, Channel: lb, Subjects: commsutil.NewSubjects("t")})
	callable.Register(reg, svc)
	return svc, lb
}

func TestService_AnswersHostQuery(t *testing.T) {
	svc, _ := newTestService(t, true)
	svc.Handle("client.version", func(_ context.Context, req *Message) ([]Data, error) {
		return []Data{NewData(Field{Key: "version", Value: "1.0"})}, nil
	})

	req := CreateMessage("client.version", "M1", false, nil)
	payload, err := commsutil.Stringify(req)
	require.NoError(t, err)

	out, err := svc.OnIncomingMethod(context.Background(), payload)
	require.NoError(t, err)

	resp, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "client.version", resp.QueryID())
	assert.Equal(t, "M1", resp.MessageID())
	assert.True(t, resp.IsResponseMessage())
	v, _ := resp.Data()[0].Get("version")
	assert.Equal(t, "1.0", v)
}

func TestService_UnknownQuery(t *testing.T) {
	svc, _ := newTestService(t, true)
	_, err := svc.OnIncomingMethod(context.Background(), `{"QueryId":"nope","MessageId":"M"}`)
	assert.True(t, errors.Is(err, ErrUnknownQuery))
}

func TestService_ResponderErrorPropagates(t *testing.T) {
	svc, _ := newTestService(t, true)
	boom := errors.New("boom")
	svc.Handle("q", func(context.Context, *Message) ([]Data, error) { return nil, boom })

	_, err := svc.OnIncomingMethod(context.Background(), `{"QueryId":"q","MessageId":"M"}`)
	assert.ErrorIs(t, err, boom)
}

func TestService_EventsReachListeners(t *testing.T) {
	svc, _ := newTestService(t, true)
	var got []*Message
	svc.Listen(func(m *Message) { got = append(got, m) })

	require.NoError(t, svc.OnIncomingEvent(context.Background(), `{"QueryId":"q","MessageId":"M","IsResponseMessage":true,"Data":[]}`))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsResponseMessage())

	assert.Error(t, svc.OnIncomingEvent(context.Background(), `oops`))
}

func TestService_AskHost(t *testing.T) {
	svc, lb := newTestService(t, true)
	subj := commsutil.NewSubjects("t").Host(FQN, version.V2014_02)
	lb.Handle(subj, func(_ context.Context, data []byte) ([]byte, error) {
		var env bridge.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		req, err := Parse(env.Payload)
		if err != nil {
			return nil, err
		}
		result, _ := commsutil.Stringify(CreateResponseFor(req, []Data{NewData(Field{Key: "answer", Value: "42"})}))
		return json.Marshal(bridge.Reply{ID: env.ID, Ok: true, Result: result})
	})

	resp, err := svc.Ask(context.Background(), "host.answer", nil)
	require.NoError(t, err)
	assert.Equal(t, "host.answer", resp.QueryID())
	assert.True(t, resp.IsResponseMessage())
	v, _ := resp.Data()[0].Get("answer")
	assert.Equal(t, "42", v)
}

func TestService_AskUnavailableHost(t *testing.T) {
	svc, lb := newTestService(t, false)
	_, err := svc.Ask(context.Background(), "q", nil)
	assert.ErrorIs(t, err, callable.ErrHostServiceUnavailable)

	assert.NoError(t, svc.Notify(context.Background(), CreateMessage("q", "M", false, nil)))
	assert.Empty(t, lb.Published())
}
