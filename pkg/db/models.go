package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/morezero/host-interop/pkg/component"
)

// HostedComponent represents a row in the hosted_components table.
type HostedComponent struct {
	ID          string    `json:"id"`
	ComponentID string    `json:"component_id"`
	CommandID   *string   `json:"command_id,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Params      []byte    `json:"params,omitempty"`
	Description *string   `json:"description,omitempty"`
	Revision    int       `json:"revision"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// Entry converts the row into a component table entry.
func (h *HostedComponent) Entry() (component.Entry, error) {
	e := component.Entry{ID: h.ComponentID}
	if h.CommandID != nil {
		e.CommandID = *h.CommandID
	}
	if h.Location != nil {
		e.Location = *h.Location
	}
	if h.Description != nil {
		e.Description = *h.Description
	}
	if len(h.Params) > 0 {
		if err := json.Unmarshal(h.Params, &e.Params); err != nil {
			return component.Entry{}, fmt.Errorf("%s - params of %s: %w", repoLogPrefix, h.ComponentID, err)
		}
	}
	return e, nil
}

// UpsertComponentParams holds parameters for UpsertComponent.
type UpsertComponentParams struct {
	ComponentID string
	CommandID   string
	Location    string
	Params      map[string]string
	Description string
}

// ParamsFromEntry builds upsert parameters from a table entry.
func ParamsFromEntry(e component.Entry) UpsertComponentParams {
	return UpsertComponentParams{
		ComponentID: e.ID,
		CommandID:   e.CommandID,
		Location:    e.Location,
		Params:      e.Params,
		Description: e.Description,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
