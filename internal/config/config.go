package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LAUNCHER_AUTH"

type Config interface {
	EnvConfig
	ProviderConfig
	SecurityConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetHTTPTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Provider
	Security
}

// Option customises how the configuration sources are layered.
type Option func(*loader)

type loader struct {
	configFile string
	flags      *pflag.FlagSet
	overrides  map[string]any
}

// WithConfigFile reads a YAML config file on top of the defaults.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithFlags binds command line flags. Flag names use '-' where keys use '.'
// e.g. --log-level binds log.level.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(l *loader) {
		l.flags = flags
	}
}

// WithOverrides sets values that take precedence over every other source.
func WithOverrides(overrides map[string]any) Option {
	return func(l *loader) {
		l.overrides = overrides
	}
}

// New builds the configuration from defaults, an optional config file, LAUNCHER_AUTH_*
// environment variables, bound flags and explicit overrides (lowest to highest precedence).
func New(options ...Option) (Config, error) {
	l := &loader{}
	for _, opt := range options {
		opt(l)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("[config New] read %s: %w", l.configFile, err)
		}
	}

	if l.flags != nil {
		if err := bindFlags(v, l.flags); err != nil {
			return nil, err
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Provider: Provider{v: v},
		Security: Security{v: v},
	}, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", ".")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("[config bindFlags] %s: %w", f.Name, err)
		}
	})
	return bindErr
}
