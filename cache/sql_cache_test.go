package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLCacheRoundTrip(t *testing.T) {
	c := NewSQLCache(4)

	key := Fingerprint("select", "wishes", "user_id")
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, "SELECT * FROM wishes WHERE user_id = $1")
	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "SELECT * FROM wishes WHERE user_id = $1", got)
}

func TestSQLCacheEviction(t *testing.T) {
	c := NewSQLCache(2)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Set(3, "c")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestFingerprintDistinguishesShapes(t *testing.T) {
	a := Fingerprint("select", "wishes", "user_id")
	b := Fingerprint("select", "wishes", "session_id")
	c := Fingerprint("select", "wishes", "user_id")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)

	// The separator keeps concatenation ambiguity out of the key space.
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
}
