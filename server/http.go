package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evcc-io/ownerportal/core"
	"github.com/evcc-io/ownerportal/core/sensor"
	"github.com/evcc-io/ownerportal/util"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

var log = util.NewLogger("httpd")

// remoteTimeout bounds a remote operation triggered by the api
const remoteTimeout = 2 * time.Minute

// Site is the set of vehicles exposed by the api
type Site interface {
	Healthy() error
	Devices() []*core.Device
	Device(vin string) (*core.Device, bool)
	Refresh(ctx context.Context, vin string) error
}

type route struct {
	Methods     []string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// HTTPd wraps an http.Server and adds the root router
type HTTPd struct {
	*http.Server
}

// NewHTTPd creates HTTP server with configured routes for the site
func NewHTTPd(addr string, site Site, cache *util.Cache) *HTTPd {
	router := mux.NewRouter().StrictSlash(true)

	// api
	api := router.PathPrefix("/api").Subrouter()
	api.Use(jsonHandler)
	api.Use(handlers.CompressHandler)
	api.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Accept", "Accept-Language", "Content-Language", "Content-Type", "Origin",
		}),
	))

	routes := map[string]route{
		"health":   {[]string{"GET"}, "/health", healthHandler(site)},
		"state":    {[]string{"GET"}, "/state", stateHandler(cache)},
		"vehicles": {[]string{"GET"}, "/vehicles", vehiclesHandler(site)},
		"vehicle":  {[]string{"GET"}, "/vehicles/{vin:[0-9a-zA-Z]+}", vehicleHandler(site)},
		"refresh":  {[]string{"POST", "OPTIONS"}, "/vehicles/{vin:[0-9a-zA-Z]+}/refresh", refreshHandler(site)},
	}

	for _, r := range routes {
		api.Methods(r.Methods...).Path(r.Pattern).Handler(r.HandlerFunc)
	}

	srv := &HTTPd{
		Server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
			ErrorLog:     log.ERROR,
		},
	}
	srv.SetKeepAlivesEnabled(true)

	return srv
}

// Router returns the main router
func (s *HTTPd) Router() *mux.Router {
	return s.Handler.(*mux.Router)
}

func jsonHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	})
}

func jsonResult(w http.ResponseWriter, res interface{}) {
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"result": res}); err != nil {
		log.ERROR.Printf("encode: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
}

// healthHandler reports stale vehicle data as failure
func healthHandler(site Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := site.Healthy(); err != nil {
			log.DEBUG.Printf("health: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintln(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}
}

// stateHandler returns the cached values grouped by vehicle
func stateHandler(cache *util.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResult(w, cache.State())
	}
}

type vehicleResult struct {
	VIN       string            `json:"vin"`
	Title     string            `json:"title"`
	Name      string            `json:"name"`
	Available bool              `json:"available"`
	Error     string            `json:"error,omitempty"`
	Device    sensor.DeviceInfo `json:"device"`
	Sensors   []sensor.State    `json:"sensors"`
}

func newVehicleResult(dev *core.Device) vehicleResult {
	res := vehicleResult{
		VIN:       dev.Vehicle.VIN(),
		Title:     dev.Vehicle.Title(),
		Name:      dev.Coordinator.Name(),
		Available: dev.Coordinator.Available(),
		Sensors:   make([]sensor.State, 0, len(dev.Entities)),
	}

	if err := dev.Coordinator.Err(); err != nil {
		res.Error = err.Error()
	}

	for i, e := range dev.Entities {
		if i == 0 {
			res.Device = e.Device()
		}
		res.Sensors = append(res.Sensors, e.State())
	}

	return res
}

// vehiclesHandler returns all vehicles with their sensors
func vehiclesHandler(site Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices := site.Devices()

		res := make([]vehicleResult, 0, len(devices))
		for _, dev := range devices {
			res = append(res, newVehicleResult(dev))
		}

		jsonResult(w, res)
	}
}

// vehicleHandler returns a single vehicle with its sensors
func vehicleHandler(site Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vin := mux.Vars(r)["vin"]

		dev, ok := site.Device(vin)
		if !ok {
			jsonError(w, http.StatusNotFound, fmt.Errorf("vehicle not found: %s", strings.ToUpper(vin)))
			return
		}

		jsonResult(w, newVehicleResult(dev))
	}
}

// refreshHandler starts a remote status update of the vehicle
func refreshHandler(site Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vin := mux.Vars(r)["vin"]

		if _, ok := site.Device(vin); !ok {
			jsonError(w, http.StatusNotFound, fmt.Errorf("vehicle not found: %s", strings.ToUpper(vin)))
			return
		}

		// remote operations outlast the write timeout
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
			defer cancel()

			if err := site.Refresh(ctx, vin); err != nil {
				log.ERROR.Printf("refresh %s: %v", vin, err)
			}
		}()

		w.WriteHeader(http.StatusAccepted)
		jsonResult(w, "started")
	}
}
