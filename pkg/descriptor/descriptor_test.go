package descriptor

import (
	"context"
	"testing"
)

const registryTestPrefix = "descriptor:registry_test"

func TestRegister_ReusesDescriptor(t *testing.T) {
	reg := NewRegistry()
	reg.Declare("plm.interop.Selection", "2014_02")

	first := reg.Register("plm.interop.Selection", "2014_02", Handlers{
		OnEvent: func(context.Context, string) error { return nil },
	})

	var secondCalled bool
	second := reg.Register("plm.interop.Selection", "2014_02", Handlers{
		OnEvent: func(context.Context, string) error { secondCalled = true; return nil },
	})

	if first != second {
		t.Fatalf("%s - expected the same descriptor on re-registration", registryTestPrefix)
	}
	if got := len(reg.List()); got != 1 {
		t.Errorf("%s - expected 1 descriptor, got %d", registryTestPrefix, got)
	}
	if err := second.Handlers().OnEvent(context.Background(), "{}"); err != nil {
		t.Fatalf("%s - unexpected error: %v", registryTestPrefix, err)
	}
	if !secondCalled {
		t.Errorf("%s - expected second handler to overwrite the first", registryTestPrefix)
	}
}

func TestRegister_SynthesizesUndeclared(t *testing.T) {
	reg := NewRegistry()
	d := reg.Register("plm.interop.Unknown", "2019_05", Handlers{})
	if d == nil {
		t.Fatalf("%s - expected synthesized descriptor", registryTestPrefix)
	}
	if reg.Find("plm.interop.Unknown", "2019_05") != d {
		t.Errorf("%s - Find did not return the synthesized descriptor", registryTestPrefix)
	}
}

func TestFind_Missing(t *testing.T) {
	reg := NewRegistry()
	reg.Declare("a.b", "2014_02")
	if reg.Find("a.b", "2014_07") != nil {
		t.Errorf("%s - expected nil for different version", registryTestPrefix)
	}
	if reg.Find("a.c", "2014_02") != nil {
		t.Errorf("%s - expected nil for different name", registryTestPrefix)
	}
}

func TestIsAvailable_ExactPair(t *testing.T) {
	reg := NewRegistry()
	if reg.IsAvailable("a.b", "2014_02") {
		t.Errorf("%s - nothing declared yet", registryTestPrefix)
	}
	ok := reg.DeclareHost([]Key{{FullyQualifiedName: "a.b", Version: "2014_07"}})
	if !ok {
		t.Fatalf("%s - expected first DeclareHost to succeed", registryTestPrefix)
	}
	if !reg.IsAvailable("a.b", "2014_07") {
		t.Errorf("%s - expected a.b@2014_07 available", registryTestPrefix)
	}
	if reg.IsAvailable("a.b", "2014_02") {
		t.Errorf("%s - a.b@2014_02 must not be available", registryTestPrefix)
	}
}

func TestDeclareHost_OnlyOnce(t *testing.T) {
	reg := NewRegistry()
	reg.DeclareHost([]Key{{FullyQualifiedName: "a.b", Version: "2014_02"}})
	if reg.DeclareHost([]Key{{FullyQualifiedName: "a.c", Version: "2014_02"}}) {
		t.Errorf("%s - second DeclareHost must be rejected", registryTestPrefix)
	}
	if reg.IsAvailable("a.c", "2014_02") {
		t.Errorf("%s - host set must not be renegotiated", registryTestPrefix)
	}
	if !reg.HostDeclared() {
		t.Errorf("%s - expected HostDeclared", registryTestPrefix)
	}
	if got := reg.HostServices(); len(got) != 1 || got[0].FullyQualifiedName != "a.b" {
		t.Errorf("%s - HostServices = %v", registryTestPrefix, got)
	}
}

func TestKey_String(t *testing.T) {
	k := Key{FullyQualifiedName: "a.b", Version: "2014_02"}
	if k.String() != "a.b@2014_02" {
		t.Errorf("%s - Key.String() = %q", registryTestPrefix, k.String())
	}
}

func TestVersionSuffixIsNormalized(t *testing.T) {
	reg := NewRegistry()
	reg.Register("plm.interop.Selection", "2019_05", Handlers{})
	reg.DeclareHost([]Key{{FullyQualifiedName: "plm.interop.Selection", Version: "2019_05|"}})

	if !reg.IsAvailable("plm.interop.Selection", "2019_05") {
		t.Errorf("%s - host 2019_05| must match 2019_05", registryTestPrefix)
	}
	if !reg.IsAvailable("plm.interop.Selection", "2019_05|") {
		t.Errorf("%s - 2019_05| lookup must match too", registryTestPrefix)
	}
	if reg.Find("plm.interop.Selection", "2019_05|") == nil {
		t.Errorf("%s - Find with trailing | returned nil", registryTestPrefix)
	}
	if got := reg.HostServices(); len(got) != 1 || got[0].Version != "2019_05" {
		t.Errorf("%s - HostServices = %v, want normalized 2019_05", registryTestPrefix, got)
	}
	if k := NewKey("x", "not-a-tag"); k.Version != "not-a-tag" {
		t.Errorf("%s - unparseable version changed to %q", registryTestPrefix, k.Version)
	}
}
