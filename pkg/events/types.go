// Package events defines the client-bound UI events raised by the interop
// layer and the publishers that deliver them to the browser UI.
package events

import (
	"github.com/morezero/host-interop/pkg/objref"
)

// Event names, used as UI subject suffixes.
const (
	NameSelectionReplaced   = "selection.replace"
	NameCommandRequested    = "command.execute"
	NameNavigationRequested = "location.navigate"
)

// Event is a UI-bound event.
type Event interface {
	Name() string
}

// SelectionReplacedEvent asks the UI to replace its selection. An empty
// Objects list clears the selection.
type SelectionReplacedEvent struct {
	Source    string               `json:"source"`
	RefType   objref.Type          `json:"refType,omitempty"`
	Objects   []objref.ModelObject `json:"objects"`
	Timestamp string               `json:"timestamp"`
}

// Name implements Event.
func (*SelectionReplacedEvent) Name() string { return NameSelectionReplaced }

// CommandRequestedEvent asks the UI to execute a command.
type CommandRequestedEvent struct {
	ComponentID string               `json:"componentId"`
	CommandID   string               `json:"commandId"`
	Objects     []objref.ModelObject `json:"objects"`
	Params      map[string]string    `json:"params,omitempty"`
	Timestamp   string               `json:"timestamp"`
}

// Name implements Event.
func (*CommandRequestedEvent) Name() string { return NameCommandRequested }

// NavigationRequestedEvent asks the UI router to navigate.
type NavigationRequestedEvent struct {
	ComponentID string            `json:"componentId"`
	Location    string            `json:"location"`
	Params      map[string]string `json:"params,omitempty"`
	Timestamp   string            `json:"timestamp"`
}

// Name implements Event.
func (*NavigationRequestedEvent) Name() string { return NameNavigationRequested }
