package strategy

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/config"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
	"github.com/pitwall-racing/pitwall/pkg/processing/laps"
	"github.com/pitwall-racing/pitwall/pkg/processing/strategy"
	"github.com/pitwall-racing/pitwall/pkg/service"
	"github.com/pitwall-racing/pitwall/pkg/utils"
)

func NewStrategyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "pit strategy evaluations on fitted lap data",
	}

	cmd.PersistentFlags().StringVar(&vehicleArg, "vehicle", "",
		"vehicle to evaluate (required)")
	_ = cmd.MarkPersistentFlagRequired("vehicle")

	cmd.AddCommand(newWindowCmd())
	cmd.AddCommand(newUndercutCmd())
	cmd.AddCommand(newFinishCmd())

	return cmd
}

var vehicleArg string

// newService wires the processing stack with the resolved CLI settings.
func newService(
	ctx context.Context,
	lapFile string,
) (*service.AnalysisService, error) {
	logger := log.GetFromContext(ctx).Named("strategy")
	records, err := utils.ReadLapFile(lapFile)
	if err != nil {
		logger.Error("could not read lap file", log.ErrorField(err))
		return nil, err
	}
	return service.NewAnalysisService(records,
		service.WithLapProcessor(laps.NewLapProcessor(
			laps.WithMadMultiplier(config.MadMultiplier))),
		service.WithOptimizer(strategy.NewOptimizer(
			strategy.WithPitLossTime(config.PitLossTime),
			strategy.WithMaxLookahead(config.MaxPitLookahead),
			strategy.WithNoPitEligibility(
				config.NoPitMaxRemainLaps, config.NoPitMaxTireAge),
			strategy.WithCliffAge(config.CliffAge),
			strategy.WithCliffPenalty(config.CliffExponent, config.CliffFactor),
			strategy.WithLogger(logger))),
		service.WithModelOptions(
			degradation.WithStintScanLimit(config.StintScanLimit)),
		service.WithLogger(logger)), nil
}
