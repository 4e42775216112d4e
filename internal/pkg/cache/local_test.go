package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGetSetLoadsOnce(t *testing.T) {
	c := NewLocal[int]("test", time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetSet("answer", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetSet("answer", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestLocalDoesNotCacheErrors(t *testing.T) {
	c := NewLocal[string]("test", time.Minute)
	boom := errors.New("boom")

	_, err := c.GetSet("k", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.GetSet("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLocalDeleteAndFlush(t *testing.T) {
	c := NewLocal[string]("test", time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Flush()
	_, ok = c.Get("b")
	assert.False(t, ok)
}
