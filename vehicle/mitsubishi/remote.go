package mitsubishi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v3"
	"github.com/evcc-io/ownerportal/util/request"
)

const (
	StatusStarted    = "Started"
	StatusSuccessful = "Successful"

	operationVehicleStatus = "vehicleStatus"
	userAgent              = "owner-portal"
)

// ErrRemoteOperation indicates a remote operation that was not started or did not complete
var ErrRemoteOperation = errors.New("remote operation failed")

func (v *API) retryOptions(ctx context.Context, attempts uint, delay time.Duration, what string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			v.log.DEBUG.Printf("%s attempt %d: %v", what, n+1, err)
		}),
	}
}

// RemoteOperation asks the vehicle to report its current status and waits for the operation to complete
func (v *API) RemoteOperation(ctx context.Context, vin string) error {
	if err := v.identity.CheckToken(); err != nil {
		return err
	}

	eventID, err := v.submit(ctx, vin)
	if eventID == "" {
		v.log.ERROR.Printf("remote operation for %s not accepted: %v", vin, err)
		if err == nil {
			err = errors.New("missing event id")
		}
		return fmt.Errorf("%w: submit: %v", ErrRemoteOperation, err)
	}

	if err != nil {
		v.log.WARN.Printf("remote operation %s not started, polling anyway: %v", eventID, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(v.SettleDelay):
	}

	if err := v.poll(ctx, vin, eventID); err != nil {
		v.log.ERROR.Printf("remote operation %s did not complete: %v", eventID, err)
		return fmt.Errorf("%w: %v", ErrRemoteOperation, err)
	}

	return nil
}

// submit posts the remote operation until it is started. The event id of the last response is returned.
func (v *API) submit(ctx context.Context, vin string) (string, error) {
	data := RemoteOperationRequest{
		Forced:    "true",
		Operation: operationVehicleStatus,
		UserAgent: userAgent,
		VIN:       vin,
	}

	var eventID string

	err := retry.Do(func() error {
		var res EventResponse

		err := v.authorized(func() (string, error) {
			res = EventResponse{}

			req, err := request.New(http.MethodPost, v.identity.URL("avi/v3/remoteOperation"), request.MarshalJSON(data), request.JSONEncoding)
			if err == nil {
				err = v.DoJSONContext(ctx, req, &res)
			}

			return res.Message, err
		})

		eventID = res.EventID

		if err == nil && res.Status != StatusStarted {
			err = fmt.Errorf("unexpected status: %q", res.Status)
		}

		return err
	}, v.retryOptions(ctx, v.SubmitAttempts, v.SubmitDelay, "submit")...)

	return eventID, err
}

// poll waits for the remote operation event to succeed
func (v *API) poll(ctx context.Context, vin, eventID string) error {
	uri := v.identity.URL(fmt.Sprintf("avi/v1/remoteOperation/vehicles/%s/events/%s", vin, eventID))

	return retry.Do(func() error {
		var res EventResponse

		req, err := request.New(http.MethodGet, uri, nil, request.AcceptJSON)
		if err == nil {
			err = v.DoJSONContext(ctx, req, &res)
		}

		if err == nil && res.Status != StatusSuccessful {
			err = fmt.Errorf("unexpected status: %q", res.Status)
		}

		return err
	}, v.retryOptions(ctx, v.PollAttempts, v.PollDelay, "poll")...)
}
