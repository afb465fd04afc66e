package cli

import (
	"os"
	"time"

	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/credentials"
	"github.com/ksyq12/cpaneldns/internal/input"
	"github.com/ksyq12/cpaneldns/internal/propagation"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader  ConfigLoader
	ClientFactory ClientFactory
	WaiterFactory WaiterFactory
	StdinReader   input.Reader
	Getenv        func(key string) string
	Executable    func() (string, error)
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load(path string) (*config.Config, error)
	Save(cfg *config.Config, path string) error
}

// ClientFactory builds a cPanel client from a credentials file
type ClientFactory interface {
	Create(credentialsFile string, opts ClientOptions) (cpanel.Service, error)
}

// ClientOptions are the transport settings resolved from config and flags
type ClientOptions struct {
	Timeout     time.Duration
	ReadRetries int
}

// WaiterFactory builds the propagation waiter for the auth hook
type WaiterFactory interface {
	Create(seconds int, resolver string) propagation.Waiter
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader:  &realConfigLoader{},
	ClientFactory: &realClientFactory{},
	WaiterFactory: &realWaiterFactory{},
	StdinReader:   input.NewStdinReader(),
	Getenv:        os.Getenv,
	Executable:    os.Executable,
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realConfigLoader struct{}

func (r *realConfigLoader) Load(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func (r *realConfigLoader) Save(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveTo(path)
}

type realClientFactory struct{}

func (r *realClientFactory) Create(credentialsFile string, opts ClientOptions) (cpanel.Service, error) {
	creds, err := credentials.Load(credentialsFile)
	if err != nil {
		return nil, err
	}

	var options []cpanel.Option
	if opts.Timeout > 0 {
		options = append(options, cpanel.WithTimeout(opts.Timeout))
	}
	if opts.ReadRetries >= 0 {
		options = append(options, cpanel.WithReadRetries(uint64(opts.ReadRetries)))
	}
	return cpanel.NewClient(creds, options...)
}

type realWaiterFactory struct{}

func (r *realWaiterFactory) Create(seconds int, resolver string) propagation.Waiter {
	return propagation.New(seconds, resolver)
}
