package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/specialistvlad/cardc/internal/app"
	"github.com/specialistvlad/cardc/internal/builder"
)

// Exit codes.
const (
	ExitCompile = 1
	ExitUsage   = 2
)

// Config keys, named after their flags.
const (
	keyRealm     = "realm"
	keyRealmURL  = "realm-url"
	keyOut       = "out"
	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyCacheSize = "cache-size"
	keyConfigDir = "config-dir"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "CARDC"

// Version is reported by --version.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var config *app.Config
	cmd := newRootCommand(func(cfg *app.Config) { config = cfg })
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if config == nil {
		// Help, version, or nothing to compile.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func newRootCommand(done func(*app.Config)) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "cardc [options] [REALM_PATH]",
		Short: "Compile a realm of cards into loadable modules",
		Long: `cardc compiles every card of a realm directory: it resolves each card's
parent and fields, flattens templates, validates the result and optionally
writes the compiled modules to an output directory.

Every option can also be set as a CARDC_* environment variable (for example
CARDC_REALM_URL), in a .env file or in cardc.yaml inside --config-dir.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, v.GetString(keyConfigDir)); err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}

			realmPath := v.GetString(keyRealm)
			if len(args) > 0 && !cmd.Flags().Changed(keyRealm) {
				realmPath = args[0]
			}
			slog.Debug("Realm path determined.", "path", realmPath)
			if realmPath == "" {
				slog.Debug("No realm path provided, printing usage and exiting.")
				return cmd.Usage()
			}

			cfg, err := app.NewConfig(app.Config{
				RealmPath: realmPath,
				RealmURL:  v.GetString(keyRealmURL),
				OutDir:    v.GetString(keyOut),
				LogFormat: strings.ToLower(v.GetString(keyLogFormat)),
				LogLevel:  strings.ToLower(v.GetString(keyLogLevel)),
				CacheSize: v.GetInt(keyCacheSize),
			})
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			done(cfg)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String(keyRealm, "", "Path to the realm directory.")
	flags.String(keyRealmURL, "http://localhost/", "URL the realm's cards live under.")
	flags.StringP(keyOut, "o", "", "Directory to write compiled modules to. Empty skips writing.")
	flags.String(keyLogLevel, "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String(keyLogFormat, "text", "Log output format. Options: 'text' or 'json'.")
	flags.Int(keyCacheSize, builder.DefaultCacheSize, "Number of compiled cards kept in memory.")
	flags.String(keyConfigDir, "", "Directory holding cardc.yaml and .env (default: current directory).")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// BindPFlags only fails on a nil flag set.
	_ = v.BindPFlags(flags)

	return cmd
}

// loadConfig reads .env and cardc.yaml from dir. Both are optional. Values
// already in the environment win over .env; flags and environment variables
// win over cardc.yaml.
func loadConfig(v *viper.Viper, dir string) error {
	if dir == "" {
		dir = "."
	}

	dotenv := filepath.Join(dir, ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenv, err)
	}

	v.SetConfigName("cardc")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	slog.Debug("Config file loaded.", "path", v.ConfigFileUsed())
	return nil
}
