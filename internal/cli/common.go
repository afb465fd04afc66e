package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/output"
)

const defaultCredentialsHint = config.DefaultCredentials

// loadConfig loads the config file and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return cfg, nil
}

// saveConfig saves the config and returns error instead of just warning
func saveConfig(cfg *config.Config) error {
	if err := deps.ConfigLoader.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// credentialsFileFor returns --credentials when given, else the account
// configured for fqdn, else the global credentials file.
func credentialsFileFor(cfg *config.Config, fqdn string) string {
	if credentialsPath != "" {
		return credentialsPath
	}
	if fqdn == "" {
		return cfg.Credentials
	}
	return cfg.CredentialsFor(fqdn)
}

// clientFor builds a client for the account that manages fqdn
func clientFor(cfg *config.Config, fqdn string) (cpanel.Service, error) {
	return deps.ClientFactory.Create(credentialsFileFor(cfg, fqdn), ClientOptions{
		Timeout:     cfg.Timeout,
		ReadRetries: cfg.ReadRetries,
	})
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

// validateDomain checks if domain is valid. A leading wildcard label is allowed.
func validateDomain(domain string) error {
	name := strings.TrimSuffix(strings.TrimPrefix(domain, "*."), ".")
	switch {
	case name == "":
		return errors.Validation("domain cannot be empty")
	case strings.ContainsAny(name, " \t"):
		return errors.Validation(fmt.Sprintf("domain %q cannot contain spaces", domain))
	case strings.Contains(name, "*"):
		return errors.Validation(fmt.Sprintf("domain %q: only a leading *. wildcard is allowed", domain))
	case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
		return errors.Validation(fmt.Sprintf("domain %q cannot start or end with hyphen", domain))
	case strings.Contains(name, ".."):
		return errors.Validation(fmt.Sprintf("domain %q has an empty label", domain))
	}
	return nil
}

// CommandResult represents a common result structure for CLI commands
type CommandResult struct {
	Success bool   `json:"success"`
	Domain  string `json:"domain"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}

// newSuccessResult creates a success result
func newSuccessResult(domain, action string) CommandResult {
	return CommandResult{
		Success: true,
		Domain:  domain,
		Action:  action,
	}
}
