package config

import (
	"os"
	"strings"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultConfigDir   = "/config"
	defaultRRDToolPath = "rrdtool"
	defaultExecTimeout = 30
)

// Settings holds the application-level configuration loaded from flags,
// environment and the TOML settings file. The per-host telemetry documents
// live as JSON files inside ConfigDir and are loaded separately.
type Settings struct {
	ConfigDir   string `mapstructure:"config_dir"`
	ThemesDir   string `mapstructure:"themes_dir"`
	ChipRoot    string `mapstructure:"chip_root"`
	RRDToolPath string `mapstructure:"rrdtool_path"`
	ExecTimeout int    `mapstructure:"exec_timeout"`
	Journal     bool   `mapstructure:"journal"`
	JournalDB   string `mapstructure:"journal_db"`
	LogLevel    string `mapstructure:"log_level"`
	Debug       bool   `mapstructure:"debug"`
	Verbose     bool   `mapstructure:"verbose"`

	// Mode is the positional run mode argument: init, collect, graph or all.
	Mode string `mapstructure:"-"`
}

// Load reads settings from command line flags, the UNRAID_RRDTOOL_CONFIG
// environment variable and /etc/unraid-rrdtool.toml, in that precedence.
func Load() (*Settings, error) {
	errFactory := errors.New()
	settings := &Settings{}

	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("config-dir", defaultConfigDir, "Directory containing telemetry config documents")
	flags.String("themes-dir", "", "Directory containing theme files (default <config-dir>/themes)")
	flags.String("chip-root", "", "Chip lookup directory (default the host hwmon class dir)")
	flags.String("rrdtool-path", defaultRRDToolPath, "Path to the rrdtool binary")
	flags.Int("exec-timeout", defaultExecTimeout, "Timeout in seconds for external process invocations")
	flags.Bool("journal", false, "Enable the run outcome journal")
	flags.String("journal-db", "", "Path to the outcome journal database")
	flags.String("log-level", "", "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("config_dir", defaultConfigDir)
	v.SetDefault("rrdtool_path", defaultRRDToolPath)
	v.SetDefault("exec_timeout", defaultExecTimeout)
	v.SetDefault("log_level", DefaultLogLevel)

	if configPath := os.Getenv("UNRAID_RRDTOOL_CONFIG"); configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("unraid-rrdtool")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	// Command line flags override file values
	flags.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		v.Set(key, f.Value.String())
	})

	if err := v.Unmarshal(settings); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if settings.ThemesDir == "" {
		settings.ThemesDir = settings.ConfigDir + "/themes"
	}

	settings.Mode = "all"
	if args := flags.Args(); len(args) > 0 {
		settings.Mode = args[0]
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(settings)

	return settings, nil
}

// Validate checks settings for values that cannot be acted on.
func (s *Settings) Validate() error {
	errFactory := errors.New()

	switch s.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, s.LogLevel)
	}

	if s.ExecTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "exec_timeout must be positive")
	}

	if s.Journal && s.JournalDB == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "journal enabled without journal_db")
	}

	switch s.Mode {
	case "", "init", "collect", "graph", "all":
	default:
		return errFactory.WithData(errors.ErrInvalidArgument, "unknown mode "+s.Mode)
	}

	return nil
}

func applyLogLevel(s *Settings) {
	switch {
	case s.Debug || s.LogLevel == "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case s.Verbose || s.LogLevel == "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case s.LogLevel == "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
