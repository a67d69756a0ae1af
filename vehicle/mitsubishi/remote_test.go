package mitsubishi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	submitURI = testBase + "avi/v3/remoteOperation"
	eventURI  = testBase + "avi/v1/remoteOperation/vehicles/VIN1/events/"
)

func statusSequence(statuses ...string) httpmock.Responder {
	var n int
	return func(req *http.Request) (*http.Response, error) {
		status := statuses[len(statuses)-1]
		if n < len(statuses) {
			status = statuses[n]
		}
		n++
		return httpmock.NewStringResponse(http.StatusOK, `{"eventId":"ev1","status":"`+status+`"}`), nil
	}
}

func TestRemoteOperation(t *testing.T) {
	v, _, _ := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodPost, submitURI, func(req *http.Request) (*http.Response, error) {
		var data RemoteOperationRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&data))

		assert.Equal(t, RemoteOperationRequest{
			Forced:    "true",
			Operation: "vehicleStatus",
			UserAgent: "owner-portal",
			VIN:       "VIN1",
		}, data)

		return httpmock.NewStringResponse(http.StatusOK, `{"eventId":"ev1","status":"Started"}`), nil
	})
	httpmock.RegisterResponder(http.MethodGet, eventURI+"ev1", statusSequence("Pending", "Successful"))

	require.NoError(t, v.RemoteOperation(context.Background(), "VIN1"))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+submitURI])
	assert.Equal(t, 2, info["GET "+eventURI+"ev1"])
}

func TestRemoteOperationSubmitRetry(t *testing.T) {
	v, _, _ := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodPost, submitURI, statusSequence("Queued", "Queued", "Started"))
	httpmock.RegisterResponder(http.MethodGet, eventURI+"ev1", statusSequence("Successful"))

	require.NoError(t, v.RemoteOperation(context.Background(), "VIN1"))
	assert.Equal(t, 3, httpmock.GetCallCountInfo()["POST "+submitURI])
}

func TestRemoteOperationNotStarted(t *testing.T) {
	v, _, _ := newTestAPI(t)

	// event id without Started status is still polled
	httpmock.RegisterResponder(http.MethodPost, submitURI, statusSequence("Queued"))
	httpmock.RegisterResponder(http.MethodGet, eventURI+"ev1", statusSequence("Successful"))

	require.NoError(t, v.RemoteOperation(context.Background(), "VIN1"))
	assert.Equal(t, 3, httpmock.GetCallCountInfo()["POST "+submitURI])
}

func TestRemoteOperationMissingEvent(t *testing.T) {
	v, _, _ := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodPost, submitURI, httpmock.NewStringResponder(http.StatusOK, `{"status":"Failed"}`))

	err := v.RemoteOperation(context.Background(), "VIN1")
	assert.True(t, errors.Is(err, ErrRemoteOperation), err)
	assert.Equal(t, 3, httpmock.GetCallCountInfo()["POST "+submitURI])
}

func TestRemoteOperationPollTimeout(t *testing.T) {
	v, _, _ := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodPost, submitURI, statusSequence("Started"))
	httpmock.RegisterResponder(http.MethodGet, eventURI+"ev1", statusSequence("Pending"))

	err := v.RemoteOperation(context.Background(), "VIN1")
	assert.True(t, errors.Is(err, ErrRemoteOperation), err)
	assert.Equal(t, 5, httpmock.GetCallCountInfo()["GET "+eventURI+"ev1"])
}

func TestRemoteOperationUnauthorized(t *testing.T) {
	v, ts, _ := newTestAPI(t)

	var rejected bool
	httpmock.RegisterResponder(http.MethodPost, submitURI, func(req *http.Request) (*http.Response, error) {
		if !rejected {
			rejected = true
			return httpmock.NewStringResponse(http.StatusOK, `{"message":"Unauthorized"}`), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"eventId":"ev1","status":"Started"}`), nil
	})
	httpmock.RegisterResponder(http.MethodGet, eventURI+"ev1", statusSequence("Successful"))

	require.NoError(t, v.RemoteOperation(context.Background(), "VIN1"))

	logins, _ := ts.counts()
	assert.Equal(t, 2, logins)
}

func TestRemoteOperationCancel(t *testing.T) {
	v, _, _ := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodPost, submitURI, statusSequence("Started"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, v.RemoteOperation(ctx, "VIN1"))
	assert.Equal(t, 0, httpmock.GetCallCountInfo()["GET "+eventURI+"ev1"])
}
