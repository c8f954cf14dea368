package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/sir-influence/pkg/config"
)

var (
	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "sirrank",
	Short: "Rank network nodes by expected SIR outbreak size",
	Long: `sirrank estimates each node's spreading power under a stochastic SIR
process. For every network it computes the epidemic threshold, derives a
schedule of infection rates around it and ranks all nodes by the mean
fraction of the network they end up infecting.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with SIR_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides logging.level)")
}

// loadConfig builds the configuration from defaults, the dotenv file, the
// config file and finally command line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	envLoaded := false
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, zerolog.Nop(), err
			}
			envLoaded = true
		}
	}

	cfg := config.NewConfig()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	if logLevel != "" {
		cfg.Set("logging.level", logLevel)
	}

	logger := cfg.CreateLogger()
	logger.Debug().
		Str("config", configPath).
		Bool("env_file_loaded", envLoaded).
		Str("command", cmd.Name()).
		Msg("Configuration loaded")
	return cfg, logger, nil
}
