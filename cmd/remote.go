package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// remoteCmd represents the remote command
var remoteCmd = &cobra.Command{
	Use:   "remote <vin>",
	Short: "Request a status update from the vehicle",
	Args:  cobra.ExactArgs(1),
	Run:   runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)

	remoteCmd.Flags().Duration("timeout", 2*time.Minute, "Remote operation timeout")
}

func runRemote(cmd *cobra.Command, args []string) {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	for _, v := range setupVehicles(args[0]) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := v.Refresh(ctx)
		cancel()

		if err != nil {
			log.FATAL.Fatalf("%s: %v", v.Title(), err)
		}

		fmt.Printf("%s: remote operation successful\n", v.Title())
	}
}
