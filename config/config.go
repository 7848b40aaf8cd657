// Package config assembles cmd/objectquelc's settings from an optional YAML
// file overridden by command-line flags. It is a CLI-only concern: nothing
// under the core compiler packages imports it.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the settings cmd/objectquelc needs to drive a compile.
type Config struct {
	// WindowSize is read from the window_size key or --window-size flag.
	// The compile command does not pass it to the compiler: a query's
	// `window` clause always carries its own window_size.
	WindowSize uint32 `koanf:"window_size"`

	// InValuesAreFinal is read from the in_values_are_final key or
	// --in-values-are-final flag. The compile command does not pass it to
	// the compiler; only a query's @InValuesAreFinal directive enables it.
	InValuesAreFinal bool `koanf:"in_values_are_final"`

	// OutputFormat selects how `compile` renders its result: "sql" (the
	// bare statement) or "json" (CompiledQuery as JSON).
	OutputFormat string `koanf:"output_format"`

	// DatabaseURL is the pgx connection string used by `compile` when a
	// query needs a live QueryExecutor for pagination.
	DatabaseURL string `koanf:"database_url"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		WindowSize:       50,
		InValuesAreFinal: false,
		OutputFormat:     "sql",
	}
}

// Load builds a Config by layering, in increasing precedence: the built-in
// defaults, an optional YAML file at path (skipped silently if path is
// empty or the file doesn't exist), and any flags set on flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if flags != nil {
		// Flag names use dashes, config keys use underscores.
		flagKey := func(f *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey), nil); err != nil {
			return Config{}, fmt.Errorf("load flag overrides: %w", err)
		}
	}

	out := Default()
	if err := k.Unmarshal("", &out); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return out, nil
}

// RegisterFlags adds the flags Load understands to flags, each defaulting
// to the value already set on cfg so the flag provider only overrides what
// the user actually passed.
func RegisterFlags(flags *pflag.FlagSet, cfg Config) {
	flags.Uint32("window-size", cfg.WindowSize, "default pagination window size")
	flags.Bool("in-values-are-final", cfg.InValuesAreFinal, "assume IN-list parameters are already complete")
	flags.String("output-format", cfg.OutputFormat, "compile output format: sql or json")
	flags.String("database-url", cfg.DatabaseURL, "postgres connection string for pagination's auxiliary fetch")
}
