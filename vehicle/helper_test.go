package vehicle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVehicle struct {
	vin, name string
}

func list(vehicles ...testVehicle) func() ([]testVehicle, error) {
	return func() ([]testVehicle, error) {
		return vehicles, nil
	}
}

func testVIN(v testVehicle) string {
	return v.vin
}

func TestEnsureVehicle(t *testing.T) {
	one := testVehicle{"VIN1", "one"}
	two := testVehicle{"VIN2", "two"}

	tc := []struct {
		vin      string
		list     func() ([]testVehicle, error)
		expected testVehicle
		err      bool
	}{
		{"", list(one), one, false},
		{"", list(one, two), testVehicle{}, true},
		{"", list(), testVehicle{}, true},
		{"", list(testVehicle{"", "empty"}), testVehicle{}, true},
		{"vin2", list(one, two), two, false},
		{" VIN1 ", list(one, two), one, false},
		{"VIN3", list(one, two), testVehicle{}, true},
	}

	for _, tc := range tc {
		vin, res, err := ensureVehicleEx(tc.vin, tc.list, testVIN)

		if tc.err {
			assert.Error(t, err, tc.vin)
			assert.Empty(t, vin)
			continue
		}

		require.NoError(t, err, tc.vin)
		assert.Equal(t, tc.expected, res)
		assert.Equal(t, tc.expected.vin, vin)
	}
}

func TestEnsureVehicleListError(t *testing.T) {
	errList := errors.New("list")

	_, _, err := ensureVehicleEx("", func() ([]testVehicle, error) {
		return nil, errList
	}, testVIN)

	assert.True(t, errors.Is(err, errList))
}
