package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flatmapit/dicomfabricator/internal/config"
	"github.com/flatmapit/dicomfabricator/internal/registry"
)

// version is set at build time via -ldflags
var version = "dev"

var (
	flagConfig   string
	flagRegistry string
	flagSeed     int64
	flagVerbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dicomfabricator",
		Short: "Generate synthetic DICOM studies for PACS testing",
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Patient generation config (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "registry", "patients.json", "Patient registry file")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Seed for reproducibility (0 = time-based)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(fabricateCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dicomfabricator %s\n", version)
		},
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newRNG() *rand.Rand {
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// openRegistry loads the config (defaults when no file is given) and opens
// the patient registry behind every subcommand.
func openRegistry(log zerolog.Logger) (*registry.Registry, *config.Config, *rand.Rand, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	}

	rng := newRNG()
	reg, err := registry.Open(flagRegistry, cfg, rng, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open registry %s: %w", flagRegistry, err)
	}
	return reg, cfg, rng, nil
}
