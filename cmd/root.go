/*
	Copyright 2026 Pitwall Racing
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pitwall-racing/pitwall/log"
	analyzeCmd "github.com/pitwall-racing/pitwall/pkg/cmd/analyze"
	simulateCmd "github.com/pitwall-racing/pitwall/pkg/cmd/simulate"
	strategyCmd "github.com/pitwall-racing/pitwall/pkg/cmd/strategy"
	"github.com/pitwall-racing/pitwall/pkg/config"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
	"github.com/pitwall-racing/pitwall/pkg/processing/laps"
	"github.com/pitwall-racing/pitwall/pkg/processing/simulation"
	"github.com/pitwall-racing/pitwall/pkg/processing/strategy"
	"github.com/pitwall-racing/pitwall/version"
)

const envPrefix = "PITWALL"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "pitwall",
	Short:   "Tire degradation and race strategy analysis",
	Long:    ``,
	Version: version.FullVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.pitwall.yml)")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")

	rootCmd.PersistentFlags().Float64Var(&config.PitLossTime,
		"pit-loss",
		strategy.DefaultPitLossTime,
		"total time lost by a pit stop (seconds)")
	rootCmd.PersistentFlags().Float64Var(&config.DegradationThreshold,
		"degradation-threshold",
		degradation.DefaultThresholdPct,
		"acceptable degradation for stint planning (percent)")
	rootCmd.PersistentFlags().IntVar(&config.MaxPitLookahead,
		"max-pit-lookahead",
		strategy.DefaultMaxLookahead,
		"laps ahead to evaluate as pit candidates")
	rootCmd.PersistentFlags().IntVar(&config.StintScanLimit,
		"stint-scan-limit",
		degradation.StintScanLimit,
		"laps ahead to scan for the stint recommendation")
	rootCmd.PersistentFlags().IntVar(&config.NoPitMaxRemainLaps,
		"no-pit-max-remaining",
		strategy.DefaultNoPitMaxRemainLaps,
		"staying out is only considered below this remaining lap count")
	rootCmd.PersistentFlags().IntVar(&config.NoPitMaxTireAge,
		"no-pit-max-tire-age",
		strategy.DefaultNoPitMaxTireAge,
		"staying out is only considered below this tire age")
	rootCmd.PersistentFlags().IntVar(&config.CliffAge,
		"cliff-age",
		strategy.DefaultCliffAge,
		"tire age at which the wear cliff penalty starts")
	rootCmd.PersistentFlags().Float64Var(&config.CliffExponent,
		"cliff-exponent",
		strategy.DefaultCliffExponent,
		"exponent of the wear penalty past the cliff")
	rootCmd.PersistentFlags().Float64Var(&config.CliffFactor,
		"cliff-factor",
		strategy.DefaultCliffFactor,
		"factor of the wear penalty past the cliff")
	rootCmd.PersistentFlags().Float64Var(&config.MadMultiplier,
		"mad-multiplier",
		laps.DefaultMadMultiplier,
		"outlier window half-width in MADs")
	rootCmd.PersistentFlags().Float64Var(&config.FuelEffectPerLap,
		"fuel-effect",
		simulation.DefaultFuelEffectPerLap,
		"lap time penalty per lap of fuel (seconds)")
	rootCmd.PersistentFlags().Float64Var(&config.TrafficVariance,
		"traffic-variance",
		simulation.DefaultTrafficVariance,
		"random traffic impact on a lap (seconds)")
	rootCmd.PersistentFlags().Int64Var(&config.SimulationSeed,
		"seed",
		0,
		"seed for strategy comparisons")

	// add commands here
	rootCmd.AddCommand(analyzeCmd.NewAnalyzeCmd())
	rootCmd.AddCommand(strategyCmd.NewStrategyCmd())
	rootCmd.AddCommand(simulateCmd.NewSimulateCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pitwall" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pitwall")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to PITWALL_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
}
