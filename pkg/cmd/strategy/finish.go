package strategy

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitwall-racing/pitwall/pkg/utils"
)

var plannedPitLaps []int

func newFinishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish lapfile",
		Short: "play the remaining laps with a fixed pit plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return raceToFinish(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&currentLap, "current-lap", 0, "current race lap")
	cmd.Flags().IntVar(&totalLaps, "total-laps", 0, "race distance in laps")
	cmd.Flags().IntVar(&tireAge, "tire-age", 0, "laps on the current tires")
	cmd.Flags().IntSliceVar(&plannedPitLaps, "pit-laps", nil,
		"planned pit laps until the finish")
	return cmd
}

func raceToFinish(ctx context.Context, lapFile string) error {
	srv, err := newService(ctx, lapFile)
	if err != nil {
		return err
	}
	res, err := srv.RaceToFinish(ctx, vehicleArg,
		currentLap, totalLaps, tireAge, plannedPitLaps)
	if err != nil {
		return err
	}
	fmt.Println(utils.JSONString(res))
	return nil
}
