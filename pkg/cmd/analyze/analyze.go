package analyze

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/config"
	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
	"github.com/pitwall-racing/pitwall/pkg/processing/laps"
	"github.com/pitwall-racing/pitwall/pkg/service"
	"github.com/pitwall-racing/pitwall/pkg/utils"
)

var (
	vehicleArg   string
	tireAge      int
	forecastLaps int
	knownPitLaps []int
)

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze lapfile",
		Short: "fit the degradation model from recorded laps",
		Long: `Normalizes the lap crossings of the given file, fits the tire
degradation model per vehicle and prints the fit summary. With --tire-age
the forecast and the stint recommendation for the current tires are
included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeLaps(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringVar(&vehicleArg, "vehicle", "",
		"restrict the analysis to this vehicle (default: all vehicles)")
	cmd.Flags().IntVar(&tireAge, "tire-age", 0,
		"laps on the current tires; enables forecast and stint recommendation")
	cmd.Flags().IntVar(&forecastLaps, "forecast", 5,
		"number of laps to forecast")
	cmd.Flags().IntSliceVar(&knownPitLaps, "pit-laps", nil,
		"lap numbers known to be pit laps (only used with --vehicle)")
	return cmd
}

type vehicleAnalysis struct {
	Report    *service.DegradationReport `json:"report"`
	Forecast  []model.LapForecast        `json:"forecast,omitempty"`
	StintPlan *model.StintRecommendation `json:"stintPlan,omitempty"`
}

func analyzeLaps(ctx context.Context, lapFile string) error {
	logger := log.GetFromContext(ctx).Named("analyze")
	records, err := utils.ReadLapFile(lapFile)
	if err != nil {
		logger.Error("could not read lap file", log.ErrorField(err))
		return err
	}

	procOpts := []laps.LapProcessorOption{
		laps.WithMadMultiplier(config.MadMultiplier),
	}
	if vehicleArg != "" && len(knownPitLaps) > 0 {
		procOpts = append(procOpts,
			laps.WithKnownPitLaps(map[string][]int{vehicleArg: knownPitLaps}))
	}
	srv := service.NewAnalysisService(records,
		service.WithLapProcessor(laps.NewLapProcessor(procOpts...)),
		service.WithModelOptions(
			degradation.WithStintScanLimit(config.StintScanLimit)),
		service.WithLogger(logger))

	vehicles := srv.Vehicles()
	if vehicleArg != "" {
		vehicles = []string{vehicleArg}
	}

	out := make([]vehicleAnalysis, 0, len(vehicles))
	for _, vehicleID := range vehicles {
		entry, aErr := analyzeVehicle(ctx, srv, vehicleID)
		if aErr != nil {
			logger.Error("analysis failed",
				log.String("vehicleId", vehicleID),
				log.ErrorField(aErr))
			continue
		}
		out = append(out, *entry)
	}
	if len(out) == 0 {
		return errors.New("no vehicle could be analyzed")
	}
	fmt.Println(utils.JSONString(out))
	return nil
}

func analyzeVehicle(
	ctx context.Context,
	srv *service.AnalysisService,
	vehicleID string,
) (*vehicleAnalysis, error) {
	report, err := srv.DegradationReport(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	entry := &vehicleAnalysis{Report: report}
	if tireAge > 0 {
		if entry.Forecast, err = srv.Forecast(
			ctx, vehicleID, tireAge, forecastLaps); err != nil {
			return nil, err
		}
		if entry.StintPlan, err = srv.StintRecommendation(
			ctx, vehicleID, tireAge, config.DegradationThreshold); err != nil {
			return nil, err
		}
	}
	return entry, nil
}
