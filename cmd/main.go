package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-processor/internal/config"
)

const configFilePath = "./configs/config.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docproc",
	Short: "Convert documents dropped in a hotdir into normalized text records",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogger("debug")
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", configFilePath, "path to the config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogger(cfg.Log.Level)
	log.Debug().Str("path", cfgFile).Msg("Loaded config")
	return cfg
}
