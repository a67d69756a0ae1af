package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiterInitialTimeout(t *testing.T) {
	waitInitialTimeout = 10 * time.Millisecond
	defer func() { waitInitialTimeout = 10 * time.Second }()

	p := NewWaiter(time.Minute)
	require.Error(t, p.Healthy())
	assert.True(t, p.Updated().IsZero())
}

func TestWaiterUpdate(t *testing.T) {
	p := NewWaiter(time.Minute)
	p.Update()
	require.NoError(t, p.Healthy())
}

func TestWaiterReleasedByUpdate(t *testing.T) {
	p := NewWaiter(0)

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Update()
	}()

	require.NoError(t, p.Healthy())
}

func TestWaiterOutdated(t *testing.T) {
	p := NewWaiter(time.Millisecond)
	p.Update()
	time.Sleep(5 * time.Millisecond)
	require.Error(t, p.Healthy())
}
