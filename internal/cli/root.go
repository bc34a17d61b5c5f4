// Package cli wires the snapshot engine into a command line tool with two
// entry points: a long-running HTTP service and a one-shot snapshot build.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "disasterintel",
	Short: "Multi-source hazard snapshots filtered by area of interest",
	Long: `disasterintel pulls three public hazard feeds (USGS earthquakes, GDACS
multi-hazard alerts, NASA FIRMS fire hotspots), normalizes them into a common
event record, and filters them by distance from a point of interest.

Run it as a service with "serve", or build a single snapshot with "snapshot":

  disasterintel snapshot --place "Ridgecrest, CA" --radius-km 100
  disasterintel serve`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("disasterintel v0.3.0")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(versionCmd)
}
