package selection

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestEchoFilter_ExactSetWithinWindow(t *testing.T) {
	clock := newFakeClock()
	f := NewEchoFilter(DefaultWindow, clock.Now)
	f.Record([]string{"O1", "O2"})

	clock.Advance(999 * time.Millisecond)
	assert.True(t, f.IsFiltered([]string{"O2", "O1"}), "order must not matter")
	assert.False(t, f.IsFiltered([]string{"O1"}), "strict subset is not an echo")
	assert.False(t, f.IsFiltered([]string{"O1", "O2", "O3"}))
}

func TestEchoFilter_ExpiresAfterWindow(t *testing.T) {
	clock := newFakeClock()
	f := NewEchoFilter(DefaultWindow, clock.Now)
	f.Record([]string{"O1"})

	clock.Advance(DefaultWindow + time.Millisecond)
	assert.False(t, f.IsFiltered([]string{"O1"}))
	assert.Equal(t, 0, f.Len(), "expired records are pruned")
}

func TestEchoFilter_Fuzzy(t *testing.T) {
	clock := newFakeClock()
	f := NewEchoFilter(DefaultWindow, clock.Now)
	f.SetFuzzy(true)
	f.Record([]string{"O1", "O2", "O3"})

	assert.True(t, f.Fuzzy())
	assert.True(t, f.IsFiltered([]string{"O2"}), "subset suppressed for fuzzy host")
	assert.True(t, f.IsFiltered([]string{"O3", "O9"}), "any intersection suppressed for fuzzy host")
	assert.False(t, f.IsFiltered([]string{"O9"}))
}

func TestEchoFilter_EmptySelection(t *testing.T) {
	clock := newFakeClock()
	f := NewEchoFilter(DefaultWindow, clock.Now)
	assert.False(t, f.IsFiltered(nil))
	f.Record(nil)
	assert.True(t, f.IsFiltered([]string{}))
	assert.False(t, f.IsFiltered([]string{"O1"}))
}

func TestEchoFilter_Defaults(t *testing.T) {
	f := NewEchoFilter(0, nil)
	assert.Equal(t, DefaultWindow, f.window)
	f.Record([]string{"x"})
	assert.Len(t, f.Records(), 1)
}

func TestEchoFilter_RecordPrunesExpired(t *testing.T) {
	clock := newFakeClock()
	f := NewEchoFilter(DefaultWindow, clock.Now)
	for i := 0; i < 5; i++ {
		f.Record([]string{"O1"})
	}
	assert.Equal(t, 5, f.Len())

	clock.Advance(DefaultWindow + time.Millisecond)
	f.Record([]string{"O2"})
	assert.Equal(t, 1, f.Len(), "expired records dropped on write")
	assert.Contains(t, f.Records()[0].IDs, "O2")
}
