package main

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"qirsim/sim"
	"qirsim/statevec"
)

// Config is the merged result of defaults, qirsim.yaml, QIRSIM_* environment
// variables and command-line flags, in increasing order of precedence.
type Config struct {
	Qubits            int     `mapstructure:"qubits"`
	MaxQubits         int     `mapstructure:"max_qubits"`
	Threshold         float64 `mapstructure:"threshold"`
	Tolerance         float64 `mapstructure:"tolerance"`
	Collapse          bool    `mapstructure:"collapse"`
	Seed              uint64  `mapstructure:"seed"`
	Exact             bool    `mapstructure:"exact"`
	Workers           int     `mapstructure:"workers"`
	ParallelThreshold int     `mapstructure:"parallel_threshold"`
	Renormalize       bool    `mapstructure:"renormalize"`

	Format     string  `mapstructure:"format"`
	Sort       string  `mapstructure:"sort"`
	MinDisplay float64 `mapstructure:"min_display"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

const envPrefix = "QIRSIM"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("qubits", 10)
	v.SetDefault("max_qubits", statevec.DefaultMaxQubits)
	v.SetDefault("threshold", sim.DefaultThreshold)
	v.SetDefault("tolerance", sim.DefaultTolerance)
	v.SetDefault("collapse", false)
	v.SetDefault("seed", 0)
	v.SetDefault("exact", false)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("parallel_threshold", statevec.DefaultParallelThreshold)
	v.SetDefault("renormalize", false)
	v.SetDefault("format", "table")
	v.SetDefault("sort", "key")
	v.SetDefault("min_display", 0.0)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags maps every flag in fs onto the config key of the same name with
// dashes turned into underscores.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// loadConfig reads the config file, if any, and decodes the merged settings.
// An explicit path must exist; the implicit ./qirsim.yaml is optional.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("qirsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.MaxQubits <= 0 || c.MaxQubits > statevec.HardMaxQubits:
		return errors.Errorf("max_qubits must be between 1 and %d, got %d", statevec.HardMaxQubits, c.MaxQubits)
	case c.Threshold < 0 || c.Threshold >= 1:
		return errors.Errorf("threshold must be in [0, 1), got %g", c.Threshold)
	case c.Tolerance <= 0:
		return errors.Errorf("tolerance must be positive, got %g", c.Tolerance)
	case c.Workers < 1:
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.MinDisplay < 0:
		return errors.Errorf("min_display must not be negative, got %g", c.MinDisplay)
	}
	switch c.Format {
	case "table", "json", "yaml":
	default:
		return errors.Errorf("unknown format %q (table, json or yaml)", c.Format)
	}
	switch c.Sort {
	case "key", "prob":
	default:
		return errors.Errorf("unknown sort order %q (key or prob)", c.Sort)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return errors.Errorf("unknown log format %q (text, json or logfmt)", c.LogFormat)
	}
	return nil
}

// simOptions turns the config into run options. The qubit count itself is
// passed separately.
func (c *Config) simOptions(logger *log.Logger) []sim.Option {
	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithMaxQubits(c.MaxQubits),
		sim.WithThreshold(c.Threshold),
		sim.WithTolerance(c.Tolerance),
		sim.WithWorkers(c.Workers),
		sim.WithParallelThreshold(c.ParallelThreshold),
		sim.WithRenormalize(c.Renormalize),
	}
	if c.Collapse {
		opts = append(opts, sim.WithCollapse(c.Seed))
	}
	if c.Exact {
		opts = append(opts, sim.WithExactQubits())
	}
	return opts
}
