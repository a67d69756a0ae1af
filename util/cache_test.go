package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRun(t *testing.T) {
	c := NewCache()

	in := make(chan Param)
	done := make(chan struct{})

	go func() {
		c.Run(in)
		close(done)
	}()

	in <- Param{Vehicle: "VIN1", Key: "Battery", Val: 40.0}
	in <- Param{Vehicle: "VIN1", Key: "Battery", Val: 42.0}
	in <- Param{Vehicle: "VIN2", Key: "Odometer", Val: 1234.0}
	close(in)
	<-done

	require.Len(t, c.All(), 2)
	assert.Equal(t, 42.0, c.Get("VIN1_Battery").Val)
	assert.Equal(t, Param{}, c.Get("VIN1_Odometer"))

	state := c.State()
	assert.Equal(t, map[string]interface{}{"Battery": 42.0}, state["VIN1"])
	assert.Equal(t, map[string]interface{}{"Odometer": 1234.0}, state["VIN2"])
}

func TestParamUniqueID(t *testing.T) {
	assert.Equal(t, "VIN_Battery", Param{Vehicle: "VIN", Key: "Battery"}.UniqueID())
	assert.Equal(t, "Battery", Param{Key: "Battery"}.UniqueID())
}

func TestTee(t *testing.T) {
	tee := new(Tee)
	a, b := tee.Attach(), tee.Attach()

	in := make(chan Param)
	go tee.Run(in)

	go func() {
		in <- Param{Key: "foo", Val: 1}
		close(in)
	}()

	assert.Equal(t, "foo", (<-a).Key)
	assert.Equal(t, "foo", (<-b).Key)

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)
}
