// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

// Runtime modes.
const (
	ModeService = "service"
	ModeLambda  = "lambda"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Webhook is a struct that contains the webhook verification configuration.
	Webhook webhook
	// Store is a struct that contains the user store configuration.
	Store store
	// Archive is a struct that contains the delivery archive configuration.
	Archive archive
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
		// LogBody logs the raw body of verified deliveries at debug level. Bodies contain personal data.
		// Nil until SetDefaults; an explicit false from the configuration file is kept.
		LogBody *bool `yaml:"logBody,omitempty" default:"true"`
	} `yaml:"logging,omitempty"`
}

type webhook struct {
	// Secret is the Svix signing secret of the Clerk webhook endpoint (whsec_...).
	Secret string `yaml:"secret,omitempty"`
	// SecretSSMKey is the SSM parameter holding the secret. It takes precedence over Secret.
	SecretSSMKey string `yaml:"secretSSMKey,omitempty"`
}

type store struct {
	// Driver is one of memory, sqlite or postgres.
	Driver string `yaml:"driver,omitempty" default:"sqlite"`
	// DSN is the driver specific data source name.
	DSN string `yaml:"dsn,omitempty" default:"file:users.db?_foreign_keys=on"`
	// Migrate creates the users table on startup.
	Migrate *bool `yaml:"migrate,omitempty" default:"true"`
}

type archive struct {
	S3 struct {
		Enabled    bool   `yaml:"enabled,omitempty"`
		BucketName string `yaml:"bucketName,omitempty"`
		Prefix     string `yaml:"prefix,omitempty" default:"clerk-webhooks/"`
	} `yaml:"s3,omitempty"`
}

type service struct {
	Path    string        `yaml:"path,omitempty" default:"/api/webhooks"`
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
	// MaxBodyBytes caps the request body read before verification.
	MaxBodyBytes int64 `yaml:"maxBodyBytes,omitempty" default:"1048576"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Webhook),
		defaults.Set(&Store),
		defaults.Set(&Archive),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global  global  `yaml:"global,omitempty"`
		Webhook webhook `yaml:"webhook,omitempty"`
		Store   store   `yaml:"store,omitempty"`
		Archive archive `yaml:"archive,omitempty"`
		Service service `yaml:"service,omitempty"`
		Lambda  lambda  `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Webhook = a.Webhook
	Store = a.Store
	Archive = a.Archive
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
