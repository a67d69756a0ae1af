package cmd

import (
	"strings"

	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/vehicle"
	"github.com/spf13/cobra"
)

// vehicleCmd represents the vehicle command
var vehicleCmd = &cobra.Command{
	Use:   "vehicle [vin]",
	Short: "Query configured vehicles",
	Args:  cobra.MaximumNArgs(1),
	Run:   runVehicle,
}

func init() {
	rootCmd.AddCommand(vehicleCmd)

	vehicleCmd.Flags().BoolP("wakeup", "w", false, "Request a status update from the vehicle before querying")
}

// setupVehicles loads the configuration and creates the vehicles, optionally restricted to vin
func setupVehicles(vin string) []*vehicle.Mitsubishi {
	conf, err := loadConfigFile(cfgFile)
	if err != nil {
		log.FATAL.Fatal(err)
	}

	if err := configureEnvironment(conf); err != nil {
		log.FATAL.Fatal(err)
	}

	vehicles, err := configureVehicles(conf)
	if err != nil {
		log.FATAL.Fatal(err)
	}

	if vin == "" {
		return vehicles
	}

	for _, v := range vehicles {
		if strings.EqualFold(v.VIN(), vin) {
			return []*vehicle.Mitsubishi{v}
		}
	}

	log.FATAL.Fatalf("vehicle not found: %s", vin)
	return nil
}

func runVehicle(cmd *cobra.Command, args []string) {
	var vin string
	if len(args) == 1 {
		vin = args[0]
	}

	vehicles := setupVehicles(vin)

	if wakeup, _ := cmd.Flags().GetBool("wakeup"); wakeup {
		for _, v := range vehicles {
			if err := wakeUp(v); err != nil {
				log.ERROR.Printf("%s: %v", v.Title(), err)
			}
		}
	}

	d := dumper{len: len(vehicles)}
	for _, v := range vehicles {
		d.DumpWithHeader(v.Title(), v)
	}
}

// wakeUp requests a status update from vehicles that support it
func wakeUp(v api.Vehicle) error {
	if vv, ok := v.(api.Resurrector); ok {
		return vv.WakeUp()
	}
	return api.ErrNotAvailable
}
