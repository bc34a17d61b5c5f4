package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mitchk23/disaster-intel-tool/internal/config"
	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/export"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
	"github.com/mitchk23/disaster-intel-tool/internal/pipeline"
)

var (
	snapPlace     string
	snapLat       float64
	snapLon       float64
	snapRadiusKM  float64
	snapWindow    float64
	snapTimeout   time.Duration
	snapOut       string
	snapCSV       string
	snapZip       string
	snapUnlocated bool
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build one snapshot and write it out",
	Long: `Snapshot fetches all enabled feeds once, filters events by the given area
of interest, and writes the result.

The center comes from --place (geocoded) or from --lat/--lon. Explicit
coordinates win when both are given.

Example:
  disasterintel snapshot --place "Ridgecrest, CA" --radius-km 100
  disasterintel snapshot --lat 35.71 --lon -117.67 --radius-km 50 --window 6
  disasterintel snapshot --place Lisbon --radius-km 200 --zip bundle.zip --csv events.csv`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapPlace, "place", "", "free-text place name to geocode")
	snapshotCmd.Flags().Float64Var(&snapLat, "lat", 0, "AOI center latitude (requires --lon)")
	snapshotCmd.Flags().Float64Var(&snapLon, "lon", 0, "AOI center longitude (requires --lat)")
	snapshotCmd.Flags().Float64Var(&snapRadiusKM, "radius-km", 0, "AOI radius in kilometers")
	snapshotCmd.Flags().Float64Var(&snapWindow, "window", 0, "look-back window in hours (default WINDOW_HOURS)")
	snapshotCmd.Flags().DurationVar(&snapTimeout, "timeout", 2*time.Minute, "overall snapshot timeout")
	snapshotCmd.Flags().StringVar(&snapOut, "out", "-", "snapshot JSON path, - for stdout")
	snapshotCmd.Flags().StringVar(&snapCSV, "csv", "", "also write in-AOI events as CSV to this path")
	snapshotCmd.Flags().StringVar(&snapZip, "zip", "", "also write the full bundle as a zip to this path")
	snapshotCmd.Flags().BoolVar(&snapUnlocated, "include-unlocated", false, "keep events without coordinates in the output")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "text"
	}

	// Logs go to stderr so stdout stays parseable.
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewMetrics()

	engine, closers, err := buildEngine(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeAll(closers, logger)

	req := pipeline.Request{Place: snapPlace, RadiusKM: snapRadiusKM, WindowHours: snapWindow}
	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if latSet != lonSet {
		return fmt.Errorf("--lat and --lon must be provided together")
	}
	if latSet {
		req.Center = &domain.Point{Lat: snapLat, Lon: snapLon}
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapTimeout)
	defer cancel()

	snap, err := engine.Snapshot(ctx, req)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	if !snapUnlocated {
		snap.Unlocated = nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "snapshot %s: %d events in AOI, %d unlocated\n",
			snap.ID, len(snap.Events), len(snap.Unlocated))
	}

	if snapCSV != "" {
		if err := writeFile(snapCSV, func(w io.Writer) error {
			return export.WriteLocatedCSV(w, snap.Events)
		}); err != nil {
			return err
		}
	}
	if snapZip != "" {
		if err := writeFile(snapZip, func(w io.Writer) error {
			return export.WriteArchive(w, snap)
		}); err != nil {
			return err
		}
	}

	if snapOut == "-" {
		return export.WriteSnapshotJSON(os.Stdout, snap)
	}
	return writeFile(snapOut, func(w io.Writer) error {
		return export.WriteSnapshotJSON(w, snap)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
