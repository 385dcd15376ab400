package strategy

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitwall-racing/pitwall/pkg/utils"
)

var (
	ownTireAge        int
	competitorTireAge int
	gapToCompetitor   float64
)

func newUndercutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undercut lapfile",
		Short: "evaluate pitting before a competitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return calcUndercut(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&ownTireAge, "own-tire-age", 0,
		"laps on the own tires")
	cmd.Flags().IntVar(&competitorTireAge, "competitor-tire-age", 0,
		"laps on the competitor's tires")
	cmd.Flags().Float64Var(&gapToCompetitor, "gap", 0,
		"gap to the competitor in seconds (positive = ahead)")
	return cmd
}

func calcUndercut(ctx context.Context, lapFile string) error {
	srv, err := newService(ctx, lapFile)
	if err != nil {
		return err
	}
	res, err := srv.Undercut(ctx, vehicleArg,
		ownTireAge, competitorTireAge, gapToCompetitor)
	if err != nil {
		return err
	}
	fmt.Println(utils.JSONString(res))
	return nil
}
