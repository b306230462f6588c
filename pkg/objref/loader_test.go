package objref

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkeletonLoader(t *testing.T) {
	got, err := SkeletonLoader{}.LoadObjects(context.Background(), []string{"A", "", "B"})
	require.NoError(t, err)
	assert.Equal(t, []ModelObject{{UID: "A"}, {UID: "B"}}, got)
}

func TestMapLoader_SkipsUnknown(t *testing.T) {
	m := MapLoader{"A": {UID: "A", Type: "Item"}}
	got, err := m.LoadObjects(context.Background(), []string{"A", "Z"})
	require.NoError(t, err)
	assert.Equal(t, []ModelObject{{UID: "A", Type: "Item"}}, got)
}

func TestIdentifierOf(t *testing.T) {
	assert.Equal(t, "A", IdentifierOf(ModelObject{UID: "A"}))
	assert.Equal(t, "f.prt", IdentifierOf(ModelObject{Props: map[string]string{PropFilename: "f.prt"}}))
}
