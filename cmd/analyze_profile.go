package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"

	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/profile"
)

var (
	profileLine    string
	profileBufferM float64
	profileJSON    bool
)

var analyzeProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Generate a subsurface profile along a cut line",
	Long:  "Projects borings within a buffer of the reference line and prints their layers ordered by position along the line and depth.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		line, err := parseLineFlag(profileLine)
		if err != nil {
			return err
		}

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := entity.NewPostgresStore(pool)
		p, err := profile.NewGenerator(store).Generate(ctx, line, profileBufferM)
		if err != nil {
			return eris.Wrap(err, "profile")
		}

		if profileJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}

		fmt.Printf("Line length: %.1f m, %d samples\n", p.LineLengthM, len(p.Samples))
		fmt.Printf("%-14s %10s %8s %8s %8s  %s\n", "BORING", "ALONG(m)", "OFF(m)", "TOP(m)", "BOT(m)", "MATERIAL")
		for s := range p.All() {
			fmt.Printf("%-14s %10.1f %8.1f %8.1f %8.1f  %s\n",
				s.BoringID, s.DistanceAlongLineM, s.OffsetM, s.LayerTopM, s.LayerBottomM, s.Material)
		}
		return nil
	},
}

// parseLineFlag parses "lng,lat lng,lat ..." into a LineString.
func parseLineFlag(s string) (*geom.LineString, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) < 2 {
		return nil, eris.New("--line needs at least two \"lng,lat\" pairs")
	}

	flat := make([]float64, 0, len(parts)*2)
	for _, part := range parts {
		lngLat := strings.Split(part, ",")
		if len(lngLat) != 2 {
			return nil, eris.Errorf("bad coordinate %q, want \"lng,lat\"", part)
		}
		lng, err := strconv.ParseFloat(lngLat[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "bad longitude %q", lngLat[0])
		}
		lat, err := strconv.ParseFloat(lngLat[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "bad latitude %q", lngLat[1])
		}
		flat = append(flat, lng, lat)
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326), nil
}

func init() {
	analyzeProfileCmd.Flags().StringVar(&profileLine, "line", "", "reference line as space-separated lng,lat pairs")
	analyzeProfileCmd.Flags().Float64Var(&profileBufferM, "buffer", 50, "buffer width in meters")
	analyzeProfileCmd.Flags().BoolVar(&profileJSON, "json", false, "emit JSON instead of a table")
	_ = analyzeProfileCmd.MarkFlagRequired("line")
	analyzeCmd.AddCommand(analyzeProfileCmd)
}
