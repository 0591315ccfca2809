// Package config loads itop settings from defaults, a config file, ITOP_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/srodi/itop/pkg/logging"
	"github.com/srodi/itop/pkg/report"
	"github.com/srodi/itop/pkg/types"
)

const envPrefix = "ITOP"

const (
	SourceSystem = "system"
	SourceBPF    = "bpf"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config is the effective configuration.
type Config struct {
	RefreshIntervalMS int       `mapstructure:"refresh_interval_ms" yaml:"refresh_interval_ms"`
	SampleTimeoutMS   int       `mapstructure:"sample_timeout_ms" yaml:"sample_timeout_ms"`
	InitialSortKey    string    `mapstructure:"initial_sort_key" yaml:"initial_sort_key"`
	SortDirection     string    `mapstructure:"sort_direction" yaml:"sort_direction"`
	HideKernel        bool      `mapstructure:"hide_kernel" yaml:"hide_kernel"`
	NameFilter        string    `mapstructure:"name_filter" yaml:"name_filter"`
	Source            string    `mapstructure:"source" yaml:"source"`
	BPFObject         string    `mapstructure:"bpf_object" yaml:"bpf_object"`
	Batch             bool      `mapstructure:"batch" yaml:"batch"`
	Output            string    `mapstructure:"output" yaml:"output"`
	Iterations        int       `mapstructure:"iterations" yaml:"iterations"`
	MetricsAddr       string    `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Log               LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig mirrors logging.Config with file-friendly keys.
type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	Level      string `mapstructure:"level" yaml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// setting is one key with its default, flag name and help text.
type setting struct {
	key   string
	def   any
	usage string
}

var settings = []setting{
	{"refresh_interval_ms", 1000, "milliseconds between samples"},
	{"sample_timeout_ms", 2000, "milliseconds a single sample may take"},
	{"initial_sort_key", "cpu", "initial sort column: cpu, mem, pid or name"},
	{"sort_direction", "desc", "initial sort direction: asc or desc"},
	{"hide_kernel", true, "hide kernel threads"},
	{"name_filter", "", "only show processes whose name contains this text"},
	{"source", SourceSystem, "process source: system or bpf"},
	{"bpf_object", "", "compiled sched_switch eBPF object (source=bpf)"},
	{"batch", false, "print plain text frames instead of the interactive screen"},
	{"output", OutputText, "batch output format: text or json (json implies batch)"},
	{"iterations", 0, "stop after this many samples (0 runs until quit)"},
	{"metrics_addr", "", "serve Prometheus metrics on this address"},
	{"log.file", "", "log file (defaults to the temp dir in interactive mode)"},
	{"log.level", "info", "log level: debug, info, warn or error"},
	{"log.max_size_mb", logging.DefaultMaxSizeMB, "log size in MB before rotation"},
	{"log.max_backups", logging.DefaultMaxBackups, "rotated log files to keep"},
	{"log.max_age_days", logging.DefaultMaxAgeDays, "days to keep rotated logs"},
}

// FlagName maps a config key to its command-line flag.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

// RegisterFlags defines one flag per setting on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		name := FlagName(s.key)
		switch def := s.def.(type) {
		case int:
			fs.Int(name, def, s.usage)
		case bool:
			fs.Bool(name, def, s.usage)
		case string:
			fs.String(name, def, s.usage)
		}
	}
}

// Load resolves the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, s := range settings {
			f := flags.Lookup(FlagName(s.key))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(s.key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.RefreshIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval_ms must be positive, got %d", c.RefreshIntervalMS))
	}
	if c.SampleTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("sample_timeout_ms must be positive, got %d", c.SampleTimeoutMS))
	}
	if _, err := types.ParseSortColumn(c.InitialSortKey); err != nil {
		errs = append(errs, err)
	}
	if _, err := types.ParseDirection(c.SortDirection); err != nil {
		errs = append(errs, err)
	}
	switch c.Source {
	case SourceSystem:
	case SourceBPF:
		if c.BPFObject == "" {
			errs = append(errs, errors.New("source bpf needs bpf_object"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (want system or bpf)", c.Source))
	}
	if c.Output != OutputText && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("unknown output %q (want text or json)", c.Output))
	}
	if c.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", c.Iterations))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Interval is the refresh interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// SampleTimeout is the budget of one sample.
func (c Config) SampleTimeout() time.Duration {
	return time.Duration(c.SampleTimeoutMS) * time.Millisecond
}

// SortKey returns the initial sort key, falling back to the default for
// values Validate would reject.
func (c Config) SortKey() types.SortKey {
	key := types.DefaultSortKey
	if col, err := types.ParseSortColumn(c.InitialSortKey); err == nil {
		key.Column = col
	}
	if dir, err := types.ParseDirection(c.SortDirection); err == nil {
		key.Direction = dir
	}
	return key
}

func (c Config) Filter() report.FilterConfig {
	hide := c.HideKernel
	return report.FilterConfig{HideKernel: &hide, NameFilter: c.NameFilter}
}

func (c Config) Logging() logging.Config {
	return logging.Config{
		File:       c.Log.File,
		Level:      c.Log.Level,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Dump writes c as YAML.
func (c Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
