package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vehicle struct {
	vin        string
	soc        float64
	err        error
	refreshErr error
	refreshed  int
}

func (v *vehicle) UID() string   { return "uid-1" }
func (v *vehicle) VIN() string   { return v.vin }
func (v *vehicle) Title() string { return "Outlander PHEV" }

func (v *vehicle) Info() mitsubishi.Vehicle {
	return mitsubishi.Vehicle{VIN: v.vin, Model: "GG3W", ModelDescription: "Outlander PHEV"}
}

func (v *vehicle) Fields() (mitsubishi.Fields, error) {
	return mitsubishi.Fields{mitsubishi.KeyBattery: v.soc}, v.err
}

func (v *vehicle) Refresh(ctx context.Context) error {
	v.refreshed++
	v.soc++
	return v.refreshErr
}

func TestSiteAdd(t *testing.T) {
	site := NewSite(time.Minute)

	assert.Error(t, site.Healthy())

	dev, err := site.Add(&vehicle{vin: "VIN1", soc: 50}, 0)
	require.NoError(t, err)
	assert.Equal(t, "ownerportal-uid-1-VIN1", dev.Coordinator.Name())
	assert.NotEmpty(t, dev.Entities)

	_, err = site.Add(&vehicle{vin: "vin1"}, 0)
	assert.Error(t, err, "duplicate")

	_, err = site.Add(&vehicle{vin: "VIN2", err: errors.New("offline")}, 0)
	assert.Error(t, err, "first refresh")

	assert.Len(t, site.Devices(), 1)
	assert.Len(t, site.Entities(), len(dev.Entities))
	assert.NoError(t, site.Healthy())

	_, ok := site.Device("vin1")
	assert.True(t, ok)
}

func TestSiteRefresh(t *testing.T) {
	site := NewSite(time.Minute)

	v := &vehicle{vin: "VIN1", soc: 50}
	dev, err := site.Add(v, 0)
	require.NoError(t, err)

	ch := make(chan util.Param, 100)
	site.Prepare(ch)

	require.NoError(t, site.Refresh(context.Background(), "VIN1"))
	assert.Equal(t, 1, v.refreshed)
	assert.Equal(t, 51.0, dev.Coordinator.Data()[mitsubishi.KeyBattery])
	assert.Equal(t, util.Param{Vehicle: "VIN1", Key: mitsubishi.KeyBattery, Val: 51.0}, <-ch)

	assert.Error(t, site.Refresh(context.Background(), "VIN2"))

	v.refreshErr = errors.New("remote")
	assert.Error(t, site.Refresh(context.Background(), "VIN1"))
}

func TestSiteRun(t *testing.T) {
	site := NewSite(time.Minute)

	_, err := site.Add(&vehicle{vin: "VIN1"}, 0)
	require.NoError(t, err)

	stopC := make(chan struct{})
	exitC := make(chan struct{})

	go func() {
		site.Run(stopC)
		close(exitC)
	}()

	close(stopC)

	select {
	case <-exitC:
	case <-time.After(time.Second):
		t.Fatal("site did not stop")
	}
}
