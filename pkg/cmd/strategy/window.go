package strategy

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitwall-racing/pitwall/pkg/utils"
)

var (
	currentLap int
	totalLaps  int
	tireAge    int
)

func newWindowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window lapfile",
		Short: "rank the pit lap candidates for the current race situation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return calcWindow(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&currentLap, "current-lap", 0, "current race lap")
	cmd.Flags().IntVar(&totalLaps, "total-laps", 0, "race distance in laps")
	cmd.Flags().IntVar(&tireAge, "tire-age", 0, "laps on the current tires")
	return cmd
}

func calcWindow(ctx context.Context, lapFile string) error {
	srv, err := newService(ctx, lapFile)
	if err != nil {
		return err
	}
	res, err := srv.PitRecommendation(ctx, vehicleArg, currentLap, totalLaps, tireAge)
	if err != nil {
		return err
	}
	fmt.Println(utils.JSONString(res))
	return nil
}
