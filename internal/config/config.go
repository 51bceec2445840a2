// Package config provides functionality for managing configuration options
// for the client using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Options holds the configuration values for the client.
type Options struct {
	// BaseURL is the forum API base, including the version prefix.
	BaseURL string `json:"base_url"`

	// TokenFile is where the bearer token is persisted between runs.
	TokenFile string `json:"token_file"`

	// TimeoutSeconds bounds every API request. No retries.
	TimeoutSeconds int `json:"timeout_seconds"`

	// Debug switches on development logging.
	Debug bool `json:"debug"`

	// Config is the path to the config file.
	Config string `json:"-"`

	// ShowVersion prints build information and exits.
	ShowVersion bool `json:"-"`
}

// Timeout returns the request deadline as a duration.
func (o *Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Validate checks the assembled options.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.BaseURL, validation.Required, is.URL),
		validation.Field(&o.TokenFile, validation.Required),
		validation.Field(&o.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(120)),
	)
}

func defaultTokenFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tribune", "session.json")
	}
	return "session.json"
}

// Parse assembles options from flags, then the config file when present,
// then environment variables, later sources overriding earlier ones.
func Parse(args []string) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("tribune", flag.ContinueOnError)
	fs.StringVar(&o.BaseURL, "url", "http://localhost:8000/api/v1", "forum API base URL")
	fs.StringVar(&o.TokenFile, "token-file", defaultTokenFile(), "path to the persisted session token")
	fs.IntVar(&o.TimeoutSeconds, "timeout", 5, "request timeout in seconds")
	fs.BoolVar(&o.Debug, "debug", false, "enable debug logging")
	fs.StringVar(&o.Config, "c", "", "path to config file")
	fs.BoolVar(&o.ShowVersion, "version", false, "show build version and date")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("TRIBUNE_CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if o.Config != "" {
		data, err := os.ReadFile(o.Config)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, o); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Environment wins over flags and file.
	if v := os.Getenv("TRIBUNE_URL"); v != "" {
		o.BaseURL = v
	}
	if v := os.Getenv("TRIBUNE_TOKEN_FILE"); v != "" {
		o.TokenFile = v
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
