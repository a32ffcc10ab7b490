// Package cli implements the latynkatar-e2e and soak command lines.
package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/config"
	"github.com/thesyncim/latynkatar-e2e/pkg/logging"
)

// RootOptions holds the configuration shared by every command. Config and
// Logger are populated before any command runs.
type RootOptions struct {
	EnvFile string

	Config *config.Config
	Logger *zap.Logger

	v *viper.Viper
}

func newRootOptions() *RootOptions {
	return &RootOptions{v: config.New()}
}

// NewRootCommand creates the latynkatar-e2e command.
func NewRootCommand() *cobra.Command {
	opts := newRootOptions()
	cmd := newBaseCommand(opts, &cobra.Command{
		Use:   "latynkatar-e2e",
		Short: "Browser regression harness for the Łatynkatar converter page",
		Long: `Drives Chromium against the Łatynkatar converter and checks page identity,
conversion across toggles, hotkeys and the copy button.

Settings come from flags, then the environment, then a .env file:
  BASE_URL=https://latynkatar.org/ latynkatar-e2e run
  latynkatar-e2e run --fixture --only convert-hotkey,clear-hotkey
  latynkatar-e2e list -v`,
	})

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewServeFixtureCommand(opts))
	return cmd
}

// newBaseCommand adds the shared persistent flags and the configuration
// loading hook to cmd.
func newBaseCommand(opts *RootOptions, cmd *cobra.Command) *cobra.Command {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.load()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if opts.Logger != nil {
			_ = opts.Logger.Sync()
		}
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.EnvFile, "env-file", "", "env file to preload (default: ./.env if present)")
	bindString(fs, opts.v, config.KeyBaseURL, "base-url", "page under test")
	bindBool(fs, opts.v, config.KeyHeadless, "headless", "run Chromium without a window")
	bindString(fs, opts.v, config.KeyChromeBin, "chrome-bin", "Chromium binary (default: rod locates or downloads one)")
	bindString(fs, opts.v, config.KeyViewport, "viewport", "window size, max or WIDTHxHEIGHT")
	bindString(fs, opts.v, config.KeyClipboard, "clipboard", "clipboard backend, page or system")
	bindString(fs, opts.v, config.KeyConvertTitle, "convert-title", "title attribute of the convert button")
	bindString(fs, opts.v, config.KeyClearTitle, "clear-title", "title attribute of the clear button")
	bindString(fs, opts.v, config.KeyCatalog, "catalog", "scenario file (default: built-in catalog)")
	bindString(fs, opts.v, config.KeyLogLevel, "log-level", "debug, info, warn or error")
	bindDuration(fs, opts.v, config.KeyImplicitWait, "implicit-wait", "ceiling for element resolution")
	bindDuration(fs, opts.v, config.KeyNavTimeout, "nav-timeout", "ceiling for the initial navigation")
	bindDuration(fs, opts.v, config.KeySettleTimeout, "settle-timeout", "give up waiting for a value to settle after this long")
	bindDuration(fs, opts.v, config.KeySettleInterval, "settle-interval", "delay between reads while settling")
	bindDuration(fs, opts.v, config.KeySettleQuiet, "settle-quiet", "a value unchanged this long is settled")
	bindDuration(fs, opts.v, config.KeyScenarioTimeout, "scenario-timeout", "bound on one scenario run (0 disables)")
	return cmd
}

func (o *RootOptions) load() error {
	var files []string
	if o.EnvFile != "" {
		files = append(files, o.EnvFile)
	}
	if err := config.LoadDotEnv(files...); err != nil {
		return WrapExitError(ExitCommandError, "failed to load env file", err)
	}
	cfg, err := config.Load(o.v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create logger", err)
	}
	o.Config, o.Logger = cfg, logger
	return nil
}

// Flag defaults come from the viper defaults so --help shows the values
// that apply when nothing is set.

func bindString(fs *pflag.FlagSet, v *viper.Viper, key, name, usage string) {
	fs.String(name, v.GetString(key), usage)
	_ = v.BindPFlag(key, fs.Lookup(name))
}

func bindBool(fs *pflag.FlagSet, v *viper.Viper, key, name, usage string) {
	fs.Bool(name, v.GetBool(key), usage)
	_ = v.BindPFlag(key, fs.Lookup(name))
}

func bindInt(fs *pflag.FlagSet, v *viper.Viper, key, name, usage string) {
	fs.Int(name, v.GetInt(key), usage)
	_ = v.BindPFlag(key, fs.Lookup(name))
}

func bindInt64(fs *pflag.FlagSet, v *viper.Viper, key, name, usage string) {
	fs.Int64(name, v.GetInt64(key), usage)
	_ = v.BindPFlag(key, fs.Lookup(name))
}

func bindDuration(fs *pflag.FlagSet, v *viper.Viper, key, name, usage string) {
	fs.Duration(name, v.GetDuration(key), usage)
	_ = v.BindPFlag(key, fs.Lookup(name))
}

// shutdownTimeout bounds fixture server shutdown.
const shutdownTimeout = 5 * time.Second
