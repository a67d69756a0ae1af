package provider

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/evcc-io/ownerportal/api"
	"github.com/stretchr/testify/assert"
)

func TestCachedGetter(t *testing.T) {
	clck := clock.NewMock()
	duration := time.Second

	var i int
	g := cachedWithClock(func() (int, error) {
		i++
		return i, nil
	}, duration, clck)

	expect := func(exp int) {
		v, err := g()
		assert.NoError(t, err)
		assert.Equal(t, exp, v)
	}

	expect(1)
	expect(1)

	clck.Add(duration)
	expect(1)

	clck.Add(time.Nanosecond)
	expect(2)
}

func TestCachedGetterMustRetry(t *testing.T) {
	clck := clock.NewMock()

	var i int
	g := cachedWithClock(func() (int, error) {
		i++
		if i == 1 {
			return 0, fmt.Errorf("throttled: %w", api.ErrMustRetry)
		}
		return i, nil
	}, time.Hour, clck)

	_, err := g()
	assert.True(t, errors.Is(err, api.ErrMustRetry))

	v, err := g()
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestResetCached(t *testing.T) {
	clck := clock.NewMock()

	var i int
	g := cachedWithClock(func() (int, error) {
		i++
		return i, nil
	}, time.Hour, clck)

	v, _ := g()
	assert.Equal(t, 1, v)

	ResetCached()

	v, _ = g()
	assert.Equal(t, 2, v)
}
