// Package config resolves run settings from defaults, an optional config
// file, BOOKBDD_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/bookbdd/internal/fixture"
)

// EnvPrefix prefixes every environment variable, e.g. BOOKBDD_BASE_URL.
const EnvPrefix = "BOOKBDD"

// DefaultBaseURL is the public restful-booker instance.
const DefaultBaseURL = "https://restful-booker.herokuapp.com"

// Config holds every run setting.
type Config struct {
	BaseURL     string        `mapstructure:"base-url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Fixtures    string        `mapstructure:"fixtures"`
	Tags        string        `mapstructure:"tags"`
	Concurrency int           `mapstructure:"concurrency"`
	Format      string        `mapstructure:"format"`
	Strict      bool          `mapstructure:"strict"`
	Bail        bool          `mapstructure:"bail"`
	BeforeAuth  bool          `mapstructure:"before-auth"`
	Contract    bool          `mapstructure:"contract"`
	ReportJSON  string        `mapstructure:"report-json"`
	ReportJUnit string        `mapstructure:"report-junit"`
	ReportHTML  string        `mapstructure:"report-html"`
	Insecure    bool          `mapstructure:"insecure"`
	CACert      string        `mapstructure:"cacert"`
	NoProxy     bool          `mapstructure:"noproxy"`
	Addr        string        `mapstructure:"addr"`
	EventsURL   string        `mapstructure:"events-url"`
}

var defaults = map[string]any{
	"base-url":     DefaultBaseURL,
	"username":     "",
	"password":     "",
	"timeout":      15 * time.Second,
	"fixtures":     "",
	"tags":         "",
	"concurrency":  1,
	"format":       "progress",
	"strict":       true,
	"bail":         false,
	"before-auth":  true,
	"contract":     true,
	"report-json":  "",
	"report-junit": "",
	"report-html":  "",
	"insecure":     false,
	"cacert":       "",
	"noproxy":      false,
	"addr":         "127.0.0.1:3001",
	"events-url":   "",
}

// Load resolves the configuration. file may be empty, in which case a
// bookbdd.yaml in the working directory is used when present. flags may be
// nil; only flags the user changed override lower layers.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("bookbdd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if _, known := defaults[f.Name]; !known || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base-url must be an absolute URL, got %q", c.BaseURL))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.EventsURL != "" {
		if u, err := url.Parse(c.EventsURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("events-url must be an absolute URL, got %q", c.EventsURL))
		}
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency))
	}
	return errors.Join(errs...)
}

// FixtureSet loads the fixture file (or the embedded defaults) and applies
// the username/password overrides.
func (c Config) FixtureSet() (fixture.Set, error) {
	fx := fixture.Default()
	if c.Fixtures != "" {
		var err error
		if fx, err = fixture.Load(c.Fixtures); err != nil {
			return fixture.Set{}, err
		}
	}
	if c.Username != "" {
		fx.Credentials.Username = c.Username
	}
	if c.Password != "" {
		fx.Credentials.Password = c.Password
	}
	return fx, fx.Validate()
}
