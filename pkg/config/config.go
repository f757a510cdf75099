// Package config loads daypilot settings from the environment and an optional
// .daypilot.yaml file.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Config is the resolved application configuration.
type Config struct {
	APIURL     string        `mapstructure:"url"`
	APIToken   string        `mapstructure:"token"`
	APITimeout time.Duration `mapstructure:"timeout"`
	APIRate    float64       `mapstructure:"rate"`
	APIBurst   int           `mapstructure:"burst"`

	// Path is the data directory routine settings are stored in.
	Path     string
	Mode     string
	LogLevel string

	// SyncCron schedules background provider syncs. Empty disables them.
	SyncCron string

	ConnectInterval time.Duration
	ConnectTimeout  time.Duration
}

// BasePath satisfies store.Config.
func (c *Config) BasePath() string {
	return c.Path
}

// Strict reports whether programming errors should panic.
func (c *Config) Strict() bool {
	return c.Mode != ModeProd
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8000/api/")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate", 10.0)
	v.SetDefault("api.burst", 20)
	v.SetDefault("path", "~/.daypilot")
	v.SetDefault("mode", ModeProd)
	v.SetDefault("log.level", "info")
	v.SetDefault("sync.cron", "")
	v.SetDefault("connect.interval", 2*time.Second)
	v.SetDefault("connect.timeout", 5*time.Minute)
}

// Load resolves configuration. A .daypilot.yaml is looked up in
// $DAYPILOT_CONFIG_PATH, the working directory and $HOME; a missing file is
// not an error. Environment variables (DAYPILOT_API_URL, ...) win over the
// file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(".daypilot") // .yaml is implicit
	v.SetEnvPrefix("DAYPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("DAYPILOT_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "config: read config file")
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		APIURL:          v.GetString("api.url"),
		APIToken:        v.GetString("api.token"),
		APITimeout:      v.GetDuration("api.timeout"),
		APIRate:         v.GetFloat64("api.rate"),
		APIBurst:        v.GetInt("api.burst"),
		Path:            v.GetString("path"),
		Mode:            v.GetString("mode"),
		LogLevel:        v.GetString("log.level"),
		SyncCron:        v.GetString("sync.cron"),
		ConnectInterval: v.GetDuration("connect.interval"),
		ConnectTimeout:  v.GetDuration("connect.timeout"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate normalises zero values to defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.APITimeout <= 0 {
		c.APITimeout = 30 * time.Second
	}
	if c.APIRate <= 0 {
		c.APIRate = 10
	}
	if c.APIBurst <= 0 {
		c.APIBurst = 20
	}
	if c.ConnectInterval <= 0 {
		c.ConnectInterval = 2 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Minute
	}
	switch strings.ToLower(c.Mode) {
	case ModeDev, "development", "demo":
		c.Mode = ModeDev
	default:
		c.Mode = ModeProd
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Path == "" {
		c.Path = "~/.daypilot"
	}
	expanded, err := homedir.Expand(c.Path)
	if err != nil {
		return errors.Wrapf(err, "config: expand path %q", c.Path)
	}
	c.Path = expanded

	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("config: api.url %q must be an absolute URL", c.APIURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.APIURL = u.String()
	return nil
}
