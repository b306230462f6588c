package component

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morezero/host-interop/pkg/events"
	"github.com/morezero/host-interop/pkg/objref"
)

func newTestDispatcher(entries ...Entry) (*Dispatcher, *events.Recorder) {
	rec := &events.Recorder{}
	d := NewDispatcher(Params{
		Table: NewTable(StaticSource(entries)),
		Loader: objref.MapLoader{
			"O1": {UID: "O1", Type: "ItemRevision"},
			"O2": {UID: "O2", Type: "ItemRevision"},
		},
		Publisher: rec,
	})
	return d, rec
}

func TestShow_Placeholder(t *testing.T) {
	d, rec := newTestDispatcher()
	out, err := d.Show(context.Background(), PlaceholderID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, out)
	assert.Empty(t, rec.Events())
}

func TestShow_UnknownComponent(t *testing.T) {
	d, rec := newTestDispatcher(Entry{ID: "Known", CommandID: "c"})
	_, err := d.Show(context.Background(), "Unknown")
	assert.True(t, errors.Is(err, ErrUnknownComponent))
	assert.Empty(t, rec.Events())
}

func TestShow_CommandReplacesSelectionThenExecutes(t *testing.T) {
	d, rec := newTestDispatcher(Entry{ID: "Where-Used", CommandID: "Awp0WhereUsed", Params: map[string]string{"depth": "1", "mode": "a"}})
	d.Contexts().Set("Where-Used", Context{
		ObjectUIDs:  []string{"O1", "O2", "missing"},
		ExtraParams: map[string]string{"mode": "b"},
	})

	out, err := d.Show(context.Background(), "Where-Used")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommand, out)

	evts := rec.Events()
	require.Len(t, evts, 2)
	sel, ok := evts[0].(*events.SelectionReplacedEvent)
	require.True(t, ok)
	assert.Len(t, sel.Objects, 2)

	cmd, ok := evts[1].(*events.CommandRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, "Awp0WhereUsed", cmd.CommandID)
	assert.Equal(t, "O1", cmd.Objects[0].UID)
	assert.Equal(t, map[string]string{"depth": "1", "mode": "b"}, cmd.Params, "extra params override entry params")
}

func TestShow_Navigation(t *testing.T) {
	d, rec := newTestDispatcher(Entry{ID: "Overview", Location: "showObject"})
	d.Contexts().Set("Overview", Context{ObjectUIDs: []string{"O2"}, EmbeddedLocationView: true})

	out, err := d.Show(context.Background(), "Overview")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigate, out)

	evts := rec.Events()
	require.Len(t, evts, 1)
	nav, ok := evts[0].(*events.NavigationRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, "showObject", nav.Location)
	assert.Equal(t, "O2", nav.Params[ParamUID])
	assert.Equal(t, "true", nav.Params[ParamUseEmbeddedLocationView])
}

func TestShow_WithoutContext(t *testing.T) {
	d, rec := newTestDispatcher(Entry{ID: "Overview", Location: "showObject"})
	_, err := d.Show(context.Background(), "Overview")
	require.NoError(t, err)

	nav := rec.Events()[0].(*events.NavigationRequestedEvent)
	_, hasUID := nav.Params[ParamUID]
	assert.False(t, hasUID)
}

func TestContextStore_OverwritesAndCopies(t *testing.T) {
	s := NewContextStore()
	uids := []string{"O1"}
	s.Set("c", Context{ObjectUIDs: uids})
	uids[0] = "changed"

	c, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, []string{"O1"}, c.ObjectUIDs)

	s.Set("c", Context{ObjectUIDs: []string{"O2"}})
	c, _ = s.Get("c")
	assert.Equal(t, []string{"O2"}, c.ObjectUIDs)
	assert.Equal(t, 1, s.Len())
}
