package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFindPartMin(t *testing.T) {
	now := time.Date(2020, time.March, 15, 10, 47, 33, 0, time.UTC)

	assert.Equal(t, 40, findPartMin(now, 10).Minute())
	assert.Equal(t, 45, findPartMin(now, 15).Minute())
	assert.Zero(t, findPartMin(now, 10).Second())

	// out of range intervals truncate to the top of the hour
	assert.Zero(t, findPartMin(now, 0).Minute())
	assert.Zero(t, findPartMin(now, 31).Minute())
	assert.Zero(t, findPartMin(now, 55).Minute())
}

func TestFindPartSec(t *testing.T) {
	now := time.Date(2020, time.March, 15, 10, 47, 33, 0, time.UTC)

	assert.Equal(t, 30, findPartSec(now, 10).Second())
	assert.Equal(t, 33, findPartSec(now, 11).Second())
	assert.Equal(t, 47, findPartSec(now, 10).Minute())

	assert.Zero(t, findPartSec(now, 0).Second())
	assert.Zero(t, findPartSec(now, 31).Second())
}
