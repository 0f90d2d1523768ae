package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleCacheUnchanged(t *testing.T) {
	c := NewSampleCache(time.Hour)

	assert.False(t, c.Unchanged("garage/T0", 210), "first sight is a change")
	assert.True(t, c.Unchanged("garage/T0", 210))
	assert.False(t, c.Unchanged("garage/T0", 211), "new value is a change")
	assert.True(t, c.Unchanged("garage/T0", 211))
	assert.False(t, c.Unchanged("attic/T0", 211), "keys are independent")
}

func TestSampleCacheExpiry(t *testing.T) {
	c := NewSampleCache(10 * time.Millisecond)
	assert.False(t, c.Unchanged("garage/T0", 210))
	time.Sleep(25 * time.Millisecond)
	assert.False(t, c.Unchanged("garage/T0", 210), "stale entry reads as changed")
}

func TestSampleCacheForget(t *testing.T) {
	c := NewSampleCache(time.Hour)
	assert.False(t, c.Unchanged("garage/T0", 210))
	c.Forget("garage/T0")
	assert.False(t, c.Unchanged("garage/T0", 210))
}
