package selection

import (
	"context"
	"time"

	"github.com/morezero/host-interop/pkg/events"
	"github.com/morezero/host-interop/pkg/objref"
)

// NewReplaceSelectionHandler returns a Handler that resolves the referenced
// objects through loader and asks the UI to replace its selection with them.
func NewReplaceSelectionHandler(refType objref.Type, loader objref.Loader, pub events.Publisher) Handler {
	return func(ctx context.Context, records []map[string]string) ([]string, error) {
		uids := make([]string, 0, len(records))
		for _, rec := range records {
			if id := objref.Identifier(rec); id != "" {
				uids = append(uids, id)
			}
		}
		objs, err := loader.LoadObjects(ctx, uids)
		if err != nil {
			return nil, err
		}
		if err := pub.Publish(ctx, &events.SelectionReplacedEvent{
			Source:    "host",
			RefType:   refType,
			Objects:   objs,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(objs))
		for _, o := range objs {
			ids = append(ids, objref.IdentifierOf(o))
		}
		return ids, nil
	}
}

// NewFilenameHandler returns a Handler for Filename references. The files are
// not model objects, so they are forwarded as objects carrying only the
// filename property.
func NewFilenameHandler(pub events.Publisher) Handler {
	return func(ctx context.Context, records []map[string]string) ([]string, error) {
		objs := make([]objref.ModelObject, 0, len(records))
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			name := rec[objref.FieldFilename]
			objs = append(objs, objref.ModelObject{Props: map[string]string{objref.PropFilename: name}})
			ids = append(ids, name)
		}
		if err := pub.Publish(ctx, &events.SelectionReplacedEvent{
			Source:    "host",
			RefType:   objref.TypeFilename,
			Objects:   objs,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
		return ids, nil
	}
}
