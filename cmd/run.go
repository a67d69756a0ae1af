package cmd

import (
	"net/http"
	_ "net/http/pprof" // pprof handler
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evcc-io/ownerportal/server"
	"github.com/evcc-io/ownerportal/server/public"
	"github.com/evcc-io/ownerportal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the polling daemon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll configured vehicles and publish their sensors",
	Run:   runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().StringP(
			"uri", "u",
			"0.0.0.0:7071",
			"Listen address",
		)

		cmd.Flags().DurationP(
			"interval", "i",
			time.Minute,
			"Update interval",
		)

		cmd.Flags().Bool(
			"metrics",
			false,
			"Expose metrics",
		)

		cmd.Flags().Bool(
			"profile",
			false,
			"Expose pprof profiles",
		)
	}
}

func bindRun(cmd *cobra.Command) {
	for _, flag := range []string{"uri", "interval", "metrics", "profile"} {
		if err := viper.BindPFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runRun(cmd *cobra.Command, args []string) {
	bindRun(cmd)

	util.LogLevel(viper.GetString("log"), viper.GetStringMapString("levels"))
	log.INFO.Printf("ownerportal %s", server.FormattedVersion())

	// load config and re-configure logging after reading config file
	conf, err := loadConfigFile(cfgFile)
	if err != nil {
		log.FATAL.Fatal(err)
	}

	// setup environment
	if err := configureEnvironment(conf); err != nil {
		log.FATAL.Fatal(err)
	}

	// setup vehicles, first refresh must succeed
	site, err := configureSite(conf)
	if err != nil {
		log.FATAL.Fatal(err)
	}

	// start broadcasting values
	tee := &util.Tee{}

	// value cache
	cache := util.NewCache()
	go cache.Run(tee.Attach())

	// setup influx
	if conf.Influx.URL != "" {
		influx, err := server.NewInfluxClient(conf.Influx)
		if err != nil {
			log.FATAL.Fatal(err)
		}
		go influx.Run(tee.Attach())
	}

	// setup mqtt publisher
	if conf.Mqtt.Broker != "" {
		publisher, err := server.NewMQTT(conf.Mqtt)
		if err != nil {
			log.FATAL.Fatal(err)
		}

		if err := publisher.Discover(site.Entities()); err != nil {
			log.ERROR.Printf("mqtt discovery: %v", err)
		}

		go publisher.Run(tee.Attach())
	}

	uri := viper.GetString("uri")
	if addr, err := public.SetListener(uri); err == nil {
		log.INFO.Println("listening at", public.Addr)
	} else {
		log.WARN.Printf("listening at %s: %v", addr, err)
	}

	// create webserver
	httpd := server.NewHTTPd(uri, site, cache)

	// metrics
	if conf.Metrics {
		metrics, err := server.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			log.FATAL.Fatal(err)
		}
		go metrics.Run(tee.Attach())

		httpd.Router().Handle("/metrics", promhttp.Handler())
	}

	// pprof
	if viper.GetBool("profile") {
		httpd.Router().PathPrefix("/debug/").Handler(http.DefaultServeMux)
	}

	// setup values channel
	valueChan := make(chan util.Param)
	go tee.Run(valueChan)

	// publish the first refresh results
	site.Prepare(valueChan)
	for _, dev := range site.Devices() {
		for key, val := range dev.Coordinator.Data() {
			valueChan <- util.Param{Vehicle: dev.Vehicle.VIN(), Key: key, Val: val}
		}
	}

	stopC := make(chan struct{})
	exitC := make(chan struct{})

	go func() {
		site.Run(stopC)
		close(exitC)
	}()

	// catch signals
	go func() {
		signalC := make(chan os.Signal, 1)
		signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

		<-signalC    // wait for signal
		close(stopC) // signal loop to end

		select {
		case <-exitC: // wait for loop to end
		case <-time.NewTimer(conf.Interval).C: // wait max 1 period
		}

		os.Exit(1)
	}()

	log.FATAL.Println(httpd.ListenAndServe())
}
