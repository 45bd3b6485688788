package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ofxdriver/ofxdriver/log"
)

// EnvPrefix prefixes environment overrides, e.g. OFXDRIVER_LOG_LEVEL.
const EnvPrefix = "OFXDRIVER"

// PluginPathEnv is the conventional colon-separated bundle search path.
const PluginPathEnv = "OFX_PLUGIN_PATH"

// Config is the process configuration. Flags win over environment, which
// wins over the config file.
type Config struct {
	PluginPaths []string `mapstructure:"plugin_paths"`
	LogLevel    string   `mapstructure:"log_level" validate:"required"`
	LogFormat   string   `mapstructure:"log_format" validate:"oneof=text json"`
	Strict      bool     `mapstructure:"strict"`
	// MaxGuestMemory caps the linear memory of each wasm guest, in MiB.
	MaxGuestMemory uint32 `mapstructure:"max_guest_memory" validate:"min=1,max=4096"`
	// Vars are command-script template variables; --set entries override them.
	Vars map[string]any `mapstructure:"vars"`
}

// addGlobalFlags registers the persistent flags shared by every command.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (YAML)")
	flags.StringArray("plugin-path", nil, "directory searched for <name>.bundle (repeatable)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", log.FormatText, "log format: text or json")
	flags.Bool("strict", false, "treat every command error as fatal")
	flags.Uint32("max-guest-memory", 256, "linear memory cap per wasm guest, in MiB")
}

var flagKeys = map[string]string{
	"config":           "config",
	"plugin_paths":     "plugin-path",
	"log_level":        "log-level",
	"log_format":       "log-format",
	"strict":           "strict",
	"max_guest_memory": "max-guest-memory",
}

// bindFlags connects config keys to their flags.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// loadConfig reads the config file, if any, and resolves the layered
// configuration.
func loadConfig(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ofx_plugin_path", PluginPathEnv); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.PluginPaths = append(cfg.PluginPaths, filepath.SplitList(v.GetString("ofx_plugin_path"))...)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeVars applies key=value assignments over base.
func mergeVars(base map[string]any, sets []string) (map[string]any, error) {
	out := make(map[string]any, len(base)+len(sets))
	for k, v := range base {
		out[k] = v
	}
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", s)
		}
		out[key] = value
	}
	return out, nil
}
