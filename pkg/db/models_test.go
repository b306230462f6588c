package db

import (
	"testing"

	"github.com/morezero/host-interop/pkg/component"
)

const modelsTestPrefix = "db:models_test"

func TestHostedComponent_Entry(t *testing.T) {
	cmd := "Awp0WhereUsed"
	desc := "where used"
	row := HostedComponent{
		ComponentID: "Where-Used",
		CommandID:   &cmd,
		Description: &desc,
		Params:      []byte(`{"depth":"1"}`),
	}

	e, err := row.Entry()
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", modelsTestPrefix, err)
	}
	if e.ID != "Where-Used" || e.CommandID != cmd || e.Location != "" {
		t.Errorf("%s - unexpected entry %+v", modelsTestPrefix, e)
	}
	if e.Params["depth"] != "1" {
		t.Errorf("%s - expected params decoded, got %v", modelsTestPrefix, e.Params)
	}
}

func TestHostedComponent_EntryBadParams(t *testing.T) {
	row := HostedComponent{ComponentID: "x", Params: []byte(`[1,2]`)}
	if _, err := row.Entry(); err == nil {
		t.Errorf("%s - expected error for non-object params", modelsTestPrefix)
	}
}

func TestParamsFromEntry(t *testing.T) {
	p := ParamsFromEntry(component.Entry{ID: "Overview", Location: "showObject", Params: map[string]string{"a": "b"}})
	if p.ComponentID != "Overview" || p.Location != "showObject" || p.CommandID != "" {
		t.Errorf("%s - unexpected params %+v", modelsTestPrefix, p)
	}
	if nullable(p.CommandID) != nil {
		t.Errorf("%s - expected empty command to be NULL", modelsTestPrefix)
	}
	if v := nullable(p.Location); v == nil || *v != "showObject" {
		t.Errorf("%s - expected location kept", modelsTestPrefix)
	}
}
