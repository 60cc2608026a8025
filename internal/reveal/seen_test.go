package reveal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenStoreMarkIfNew(t *testing.T) {
	s := newSeenStore(time.Minute)
	assert.True(t, s.MarkIfNew("k"))
	assert.False(t, s.MarkIfNew("k"))
	assert.True(t, s.MarkIfNew("other"))
}

func TestSeenStoreForget(t *testing.T) {
	s := newSeenStore(time.Minute)
	assert.True(t, s.MarkIfNew("k"))
	s.Forget("k")
	assert.True(t, s.MarkIfNew("k"))
}

func TestSeenStoreExpiry(t *testing.T) {
	s := newSeenStore(time.Minute)
	current := time.Now()
	s.now = func() time.Time { return current }

	assert.True(t, s.MarkIfNew("k"))
	assert.False(t, s.MarkIfNew("k"))

	current = current.Add(2 * time.Minute)
	// Expired entries behave as never seen, and get swept.
	assert.True(t, s.MarkIfNew("k"))
	assert.Len(t, s.entries, 1)
}
