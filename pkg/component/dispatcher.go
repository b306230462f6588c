package component

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/morezero/host-interop/pkg/events"
	"github.com/morezero/host-interop/pkg/objref"
)

const dispatchLogPrefix = "component:dispatcher"

// PlaceholderID is the component id the host sends when nothing should open.
const PlaceholderID = "Placeholder"

// Navigation parameters added to the entry and extra params.
const (
	ParamUID                     = "uid"
	ParamUseEmbeddedLocationView = "useEmbeddedLocationView"
)

// ErrUnknownComponent is returned when the table has no entry for an id.
var ErrUnknownComponent = errors.New("unknown component")

// Outcome describes what Show did.
type Outcome string

const (
	OutcomeNoOp     Outcome = "noop"
	OutcomeCommand  Outcome = "command"
	OutcomeNavigate Outcome = "navigate"
)

// Params holds parameters for NewDispatcher.
type Params struct {
	Table     *Table
	Contexts  *ContextStore
	Loader    objref.Loader
	Publisher events.Publisher
}

// Dispatcher opens hosted components.
type Dispatcher struct {
	table     *Table
	contexts  *ContextStore
	loader    objref.Loader
	publisher events.Publisher
}

// NewDispatcher creates a dispatcher. Missing parameters get empty defaults.
func NewDispatcher(p Params) *Dispatcher {
	d := &Dispatcher{table: p.Table, contexts: p.Contexts, loader: p.Loader, publisher: p.Publisher}
	if d.table == nil {
		d.table = NewTable(nil)
	}
	if d.contexts == nil {
		d.contexts = NewContextStore()
	}
	if d.loader == nil {
		d.loader = objref.SkeletonLoader{}
	}
	if d.publisher == nil {
		d.publisher = &events.NoOpPublisher{}
	}
	return d
}

// Contexts returns the context store fed by host component context events.
func (d *Dispatcher) Contexts() *ContextStore {
	return d.contexts
}

// Show opens componentID. Unknown ids are logged and reported with
// ErrUnknownComponent.
func (d *Dispatcher) Show(ctx context.Context, componentID string) (Outcome, error) {
	if componentID == PlaceholderID {
		return OutcomeNoOp, nil
	}

	entry, ok, err := d.table.Lookup(ctx, componentID)
	if err != nil {
		return "", fmt.Errorf("%s - component table: %w", dispatchLogPrefix, err)
	}
	if !ok {
		slog.Error(fmt.Sprintf("%s - No configuration for component %q", dispatchLogPrefix, componentID))
		return "", fmt.Errorf("%s - %q: %w", dispatchLogPrefix, componentID, ErrUnknownComponent)
	}

	cc, _ := d.contexts.Get(componentID)
	objs, err := d.loader.LoadObjects(ctx, cc.ObjectUIDs)
	if err != nil {
		return "", fmt.Errorf("%s - load objects for %q: %w", dispatchLogPrefix, componentID, err)
	}
	params := mergeParams(entry.Params, cc.ExtraParams)
	now := time.Now().UTC().Format(time.RFC3339)

	switch {
	case entry.IsCommand():
		if err := d.publisher.Publish(ctx, &events.SelectionReplacedEvent{
			Source:    "component",
			Objects:   objs,
			Timestamp: now,
		}); err != nil {
			return "", fmt.Errorf("%s - replace selection: %w", dispatchLogPrefix, err)
		}
		if err := d.publisher.Publish(ctx, &events.CommandRequestedEvent{
			ComponentID: componentID,
			CommandID:   entry.CommandID,
			Objects:     objs,
			Params:      params,
			Timestamp:   now,
		}); err != nil {
			return "", fmt.Errorf("%s - execute %s: %w", dispatchLogPrefix, entry.CommandID, err)
		}
		slog.Debug(fmt.Sprintf("%s - %s -> command %s with %d objects", dispatchLogPrefix, componentID, entry.CommandID, len(objs)))
		return OutcomeCommand, nil

	case entry.IsNavigation():
		if len(objs) > 0 {
			ids := make([]string, 0, len(objs))
			for _, o := range objs {
				ids = append(ids, objref.IdentifierOf(o))
			}
			params[ParamUID] = strings.Join(ids, ",")
		}
		if cc.EmbeddedLocationView {
			params[ParamUseEmbeddedLocationView] = "true"
		}
		if err := d.publisher.Publish(ctx, &events.NavigationRequestedEvent{
			ComponentID: componentID,
			Location:    entry.Location,
			Params:      params,
			Timestamp:   now,
		}); err != nil {
			return "", fmt.Errorf("%s - navigate to %s: %w", dispatchLogPrefix, entry.Location, err)
		}
		slog.Debug(fmt.Sprintf("%s - %s -> navigate %s", dispatchLogPrefix, componentID, entry.Location))
		return OutcomeNavigate, nil
	}

	slog.Warn(fmt.Sprintf("%s - Component %q has neither command nor location", dispatchLogPrefix, componentID))
	return OutcomeNoOp, nil
}

func mergeParams(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
