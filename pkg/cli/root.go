// Package cli implements the greenroute command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/routing"
)

// Configuration keys shared by flags, environment and the config file.
const (
	keyFuelPrice = "fuel_price"
	keyLanguage  = "language"
	keyOutput    = "output"
	keyOSRMURL   = "osrm_url"
	keyVerbose   = "verbose"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

const envPrefix = "GREENROUTE"

// defaultConfigName is looked up in the home directory when --config is not given.
const defaultConfigName = ".greenroute.yaml"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v         *viper.Viper
	logger    *slog.Logger
	estimator *impact.Estimator
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New()}

	var configFile string

	cmd := &cobra.Command{
		Use:     "greenroute",
		Version: version,
		Short:   "Estimate the environmental impact of route optimization",
		Long: `greenroute estimates the monthly fuel, CO2 and money saved when a vehicle's
routes are optimized, for a single vehicle, a lane between two points or a
whole fleet scenario.`,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(configFile); err != nil {
				return err
			}
			a.logger = newLogger(cmd.ErrOrStderr(), a.v.GetBool(keyVerbose))

			est, err := impact.NewEstimator(impact.Config{
				Limits: impact.DefaultLimits(),
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			a.estimator = est
			return a.checkOutput()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/"+defaultConfigName+")")
	flags.String("lang", impact.DefaultLanguage.String(), "language for messages and number formatting (es, en)")
	flags.StringP("output", "o", OutputTable, "output format: table or json")
	flags.Float64("fuel-price", 0, "fuel price per liter")
	flags.String("osrm-url", routing.DefaultBaseURL, "OSRM routing service base URL")
	flags.BoolP("verbose", "v", false, "enable debug logging on stderr")

	bind := map[string]string{
		keyLanguage:  "lang",
		keyOutput:    "output",
		keyFuelPrice: "fuel-price",
		keyOSRMURL:   "osrm-url",
		keyVerbose:   "verbose",
	}
	for key, name := range bind {
		// BindPFlag only fails for a nil flag.
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(
		newEstimateCmd(a),
		newValidateCmd(a),
		newProfilesCmd(a),
		newRouteCmd(a),
		newFleetCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

const rootCmdExample = `  # Savings for a van driving 2,000 km a month at 1.50 per liter
  greenroute estimate --class van --distance 2000 --fuel-price 1.5

  # Same estimate in English as JSON
  greenroute estimate --class van --distance 2000 --fuel-price 1.5 --lang en -o json

  # A lane driven 20 times a month
  greenroute route --class truck --from "40.4168,-3.7038" --to "39.4699,-0.3763" --trips 20 --fuel-price 1.5

  # A fleet scenario file
  greenroute fleet scenario.yaml`

// loadConfig layers the config file and GREENROUTE_* variables under the flags.
// A missing default config file is not an error.
func (a *app) loadConfig(path string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, defaultConfigName)
	}

	a.v.SetConfigFile(path)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func (a *app) checkOutput() error {
	switch a.output() {
	case OutputTable, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q, use %s or %s", a.output(), OutputTable, OutputJSON)
	}
}

func (a *app) output() string {
	return strings.ToLower(a.v.GetString(keyOutput))
}

func (a *app) language() language.Tag {
	return impact.MatchLanguage(a.v.GetString(keyLanguage))
}

func (a *app) fuelPrice() float64 {
	return a.v.GetFloat64(keyFuelPrice)
}

// router builds a lane resolver for the configured routing service.
func (a *app) router() (*routing.Router, error) {
	cfg := routing.DefaultConfig()
	cfg.BaseURL = a.v.GetString(keyOSRMURL)
	cfg.Logger = a.logger
	return routing.New(cfg)
}

// newLogger logs to stderr at warn, or debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
