package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HERITAGECORE_"

const defaultDotEnv = ".env"

type loadOptions struct {
	dotEnv   string
	explicit bool
	environ  func() []string
}

// Option customises Load.
type Option func(*loadOptions)

// WithDotEnv loads path instead of ./.env. A missing explicit file is an error.
func WithDotEnv(path string) Option {
	return func(o *loadOptions) {
		o.dotEnv = path
		o.explicit = true
	}
}

// WithoutDotEnv skips the .env file.
func WithoutDotEnv() Option {
	return func(o *loadOptions) {
		o.dotEnv = ""
		o.explicit = false
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(fn func() []string) Option {
	return func(o *loadOptions) {
		o.environ = fn
	}
}

// Load merges defaults, the .env file and environment variables, then
// validates the result. Variables already set in the process environment win
// over the .env file.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{dotEnv: defaultDotEnv}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dotEnv != "" {
		if err := godotenv.Load(o.dotEnv); err != nil {
			if o.explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", o.dotEnv, err)
			}
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnvKey maps HERITAGECORE_STORAGE_SQLITE_PATH to storage.sqlite_path.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	if len(parts) < 2 {
		return "", nil
	}
	return parts[0] + "." + strings.Join(parts[1:], "_"), value
}

var validate = validator.New()

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
