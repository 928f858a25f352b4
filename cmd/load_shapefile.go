package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/ingest"
	"github.com/gms-foundation/gms-cli/internal/runlog"
)

var (
	shapefileType    string
	shapefileIDField string
)

var loadShapefileCmd = &cobra.Command{
	Use:   "shapefile <path>",
	Short: "Load entities from a shapefile",
	Long:  "Reads every record of a shapefile and upserts each as an entity of the given type, carrying all DBF attributes.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		t, err := entity.ParseEntityType(shapefileType)
		if err != nil {
			return err
		}

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		rec := runlog.NewRecorder(pool)
		run, err := rec.Start(ctx, "load_shapefile")
		if err != nil {
			return err
		}

		n, err := ingest.NewLoader(pool).LoadShapefile(ctx, args[0], t, shapefileIDField)
		if err != nil {
			_ = rec.Fail(ctx, run, err)
			return eris.Wrapf(err, "load shapefile %s", args[0])
		}
		if err := rec.Complete(ctx, run, n); err != nil {
			return err
		}

		zap.L().Info("shapefile load complete",
			zap.String("path", args[0]),
			zap.String("entity_type", shapefileType),
			zap.Int64("records", n))
		return nil
	},
}

func init() {
	loadShapefileCmd.Flags().StringVar(&shapefileType, "type", "hazard", "entity type for loaded records")
	loadShapefileCmd.Flags().StringVar(&shapefileIDField, "id-field", "", "DBF field to use as the stable entity ID")
	loadCmd.AddCommand(loadShapefileCmd)
}
