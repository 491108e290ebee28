package main

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/hhhapz/uksidoc/legislation"
)

type configuration struct {
	Server  serverConfig  `toml:"server"`
	Source  sourceConfig  `toml:"source"`
	Discord discordConfig `toml:"discord"`
}

type serverConfig struct {
	Addr string `toml:"addr"`
}

type sourceConfig struct {
	URL       string   `toml:"url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   duration `toml:"timeout"`
	MaxBytes  int64    `toml:"max_bytes"`
}

type discordConfig struct {
	Token string `toml:"token"`
}

// duration reads "30s" style strings. Zero means no client timeout.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func defaultConfig() configuration {
	return configuration{
		Server: serverConfig{Addr: ":8080"},
		Source: sourceConfig{
			URL:       legislation.DefaultURL,
			UserAgent: legislation.UserAgent,
			MaxBytes:  legislation.DefaultMaxBytes,
		},
	}
}

// loadConfig reads the TOML file at path. A missing file yields the defaults.
func loadConfig(path string) (configuration, error) {
	fileBytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig().fromEnv(), nil
	}
	if err != nil {
		return configuration{}, errors.Wrap(err, "could not open config")
	}
	cfg, err := configFromBytes(fileBytes)
	if err != nil {
		return configuration{}, err
	}
	return cfg.fromEnv(), nil
}

func configFromBytes(b []byte) (configuration, error) {
	cfg := defaultConfig()
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return configuration{}, errors.Wrap(err, "could not parse config")
	}
	if err := cfg.validate(); err != nil {
		return configuration{}, err
	}
	return cfg, nil
}

func (c configuration) fromEnv() configuration {
	if token := os.Getenv("UKSIDOC_DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	return c
}

func (c configuration) validate() error {
	switch {
	case c.Source.URL == "":
		return errors.New("source.url must be set")
	case c.Source.Timeout.Duration < 0:
		return errors.New("source.timeout must not be negative")
	case c.Source.MaxBytes < 0:
		return errors.New("source.max_bytes must not be negative")
	}
	return nil
}
