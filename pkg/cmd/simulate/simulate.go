package simulate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/config"
	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/simulation"
	"github.com/pitwall-racing/pitwall/pkg/service"
	"github.com/pitwall-racing/pitwall/pkg/utils"
)

var (
	baselineArg  float64
	totalLaps    int
	lapFile      string
	vehicleArg   string
	strategyFile string
	trackName    string
)

func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "compare race strategies over a full race distance",
		Long: `Simulates each strategy lap by lap on the compound model and ranks
them by total race time. The baseline lap time is either given directly or
fitted from a lap file. Without a strategy file the default strategy set for
the race distance is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulateRace(cmd.Context())
		},
	}
	cmd.Flags().Float64Var(&baselineArg, "baseline", 0,
		"baseline lap time in seconds")
	cmd.Flags().IntVar(&totalLaps, "total-laps", 0, "race distance in laps")
	cmd.Flags().StringVar(&lapFile, "lap-file", "",
		"fit the baseline from this lap file instead of --baseline")
	cmd.Flags().StringVar(&vehicleArg, "vehicle", "",
		"vehicle to fit the baseline from (with --lap-file)")
	cmd.Flags().StringVar(&strategyFile, "strategies", "",
		"YAML file with the strategies to compare")
	cmd.Flags().StringVar(&trackName, "track", "", "track name for the report")
	return cmd
}

func simulateRace(ctx context.Context) error {
	logger := log.GetFromContext(ctx).Named("simulate")

	baseline := baselineArg
	if lapFile != "" {
		fitted, err := fitBaseline(ctx, logger)
		if err != nil {
			return err
		}
		baseline = fitted
	}

	var strategies []*model.RaceStrategy
	if strategyFile != "" {
		var err error
		if strategies, err = readStrategyFile(strategyFile); err != nil {
			logger.Error("could not read strategy file", log.ErrorField(err))
			return err
		}
	}

	opts := []simulation.SimulatorOption{
		simulation.WithFuelEffectPerLap(config.FuelEffectPerLap),
		simulation.WithTrafficVariance(config.TrafficVariance),
		simulation.WithCliffPenalty(config.CliffExponent, config.CliffFactor),
		simulation.WithLogger(logger),
	}
	if trackName != "" {
		opts = append(opts, simulation.WithTrackName(trackName))
	}
	report, err := service.RunSimulation(
		baseline, totalLaps, strategies, config.SimulationSeed, opts...)
	if err != nil {
		return err
	}
	fmt.Println(utils.JSONString(report))
	return nil
}

func fitBaseline(ctx context.Context, logger *log.Logger) (float64, error) {
	records, err := utils.ReadLapFile(lapFile)
	if err != nil {
		logger.Error("could not read lap file", log.ErrorField(err))
		return 0, err
	}
	srv := service.NewAnalysisService(records, service.WithLogger(logger))
	vehicle := vehicleArg
	if vehicle == "" {
		vehicles := srv.Vehicles()
		if len(vehicles) != 1 {
			return 0, fmt.Errorf(
				"--vehicle is required, lap file contains %d vehicles",
				len(vehicles))
		}
		vehicle = vehicles[0]
	}
	report, err := srv.DegradationReport(ctx, vehicle)
	if err != nil {
		return 0, err
	}
	logger.Info("baseline fitted",
		log.String("vehicleId", vehicle),
		log.Float64("baseline", report.Fit.BaselineLaptime))
	return report.Fit.BaselineLaptime, nil
}

func readStrategyFile(path string) ([]*model.RaceStrategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strategies []*model.RaceStrategy
	if err := yaml.Unmarshal(data, &strategies); err != nil {
		return nil, fmt.Errorf("could not parse strategy file %s: %w", path, err)
	}
	return strategies, nil
}
