package objref

import "context"

// Loader resolves object identifiers into model objects.
type Loader interface {
	LoadObjects(ctx context.Context, uids []string) ([]ModelObject, error)
}

// SkeletonLoader resolves each uid to a ModelObject carrying only its UID.
// It is used when no object service is reachable; the UI layer loads
// properties itself.
type SkeletonLoader struct{}

// LoadObjects implements Loader.
func (SkeletonLoader) LoadObjects(_ context.Context, uids []string) ([]ModelObject, error) {
	out := make([]ModelObject, 0, len(uids))
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		out = append(out, ModelObject{UID: uid})
	}
	return out, nil
}

// MapLoader resolves uids from a fixed map. Unknown uids are skipped.
type MapLoader map[string]ModelObject

// LoadObjects implements Loader.
func (m MapLoader) LoadObjects(_ context.Context, uids []string) ([]ModelObject, error) {
	out := make([]ModelObject, 0, len(uids))
	for _, uid := range uids {
		if obj, ok := m[uid]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// IdentifierOf returns the stable identifier used for selection tracking.
func IdentifierOf(obj ModelObject) string {
	if obj.UID != "" {
		return obj.UID
	}
	return obj.Prop(PropFilename)
}
