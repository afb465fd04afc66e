package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/output"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// captureOutput collects everything the command prints during f
func captureOutput(t *testing.T, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	output.SetOutput(&buf)
	t.Cleanup(func() { output.SetOutput(nil) })
	f()
	return buf.String()
}

// setFlag sets a command flag as if given on the command line and restores
// it when the test ends.
func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	f := cmd.Flags().Lookup(name)
	if f == nil {
		t.Fatalf("flag %s not defined on %s", name, cmd.Name())
	}
	old := f.Value.String()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("failed to set %s: %v", name, err)
	}
	t.Cleanup(func() {
		_ = f.Value.Set(old)
		f.Changed = false
	})
}

// writeCredentials writes a valid credentials file and returns its path
func writeCredentials(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := "url = https://cpanel.example.com:2083\nusername = user\ntoken = TOKEN123\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return path
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		wantErr bool
	}{
		{"valid simple domain", "example.com", false},
		{"valid subdomain", "www.example.com", false},
		{"challenge name", "_acme-challenge.example.com", false},
		{"trailing dot", "example.com.", false},
		{"wildcard", "*.example.com", false},
		{"empty domain", "", true},
		{"only wildcard", "*.", true},
		{"domain with space", "example .com", true},
		{"inner wildcard", "www.*.example.com", true},
		{"starts with hyphen", "-example.com", true},
		{"ends with hyphen", "example.com-", true},
		{"empty label", "www..example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDomain(tt.domain)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDomain(%q) error = %v, wantErr %v", tt.domain, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCredentialsFileFor(t *testing.T) {
	NewTestHelper(t)

	cfg := config.New()
	cfg.Credentials = "/etc/letsencrypt/global.ini"
	if err := cfg.AddAccount(&config.Account{Domain: "example.org", Credentials: "/etc/letsencrypt/org.ini"}); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}

	tests := []struct {
		name     string
		flag     string
		fqdn     string
		expected string
	}{
		{"global", "", "_acme-challenge.example.com", "/etc/letsencrypt/global.ini"},
		{"account match", "", "_acme-challenge.www.example.org", "/etc/letsencrypt/org.ini"},
		{"no name", "", "", "/etc/letsencrypt/global.ini"},
		{"flag wins", "/tmp/cli.ini", "_acme-challenge.example.org", "/tmp/cli.ini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credentialsPath = tt.flag
			if got := credentialsFileFor(cfg, tt.fqdn); got != tt.expected {
				t.Errorf("credentialsFileFor(%q) = %s, want %s", tt.fqdn, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("timeout flag overrides config", func(t *testing.T) {
		h := NewTestHelper(t)
		configPath = "/tmp/custom.yaml"
		timeout = 5 * time.Second

		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", cfg.Timeout)
		}
		if h.MockConfig.Paths[0] != "/tmp/custom.yaml" {
			t.Errorf("expected --config path to be used, got %v", h.MockConfig.Paths)
		}
	})

	t.Run("load error", func(t *testing.T) {
		h := NewTestHelper(t)
		h.MockConfig.LoadErr = fmt.Errorf("broken yaml")

		if _, err := loadConfig(); err == nil {
			t.Error("expected error")
		}
	})
}

func TestClientFor(t *testing.T) {
	h := NewTestHelper(t, "example.com")
	cfg := h.GetConfig()
	cfg.Timeout = 10 * time.Second
	cfg.ReadRetries = 1

	if _, err := clientFor(cfg, "_acme-challenge.example.com"); err != nil {
		t.Fatalf("clientFor failed: %v", err)
	}
	opts := h.Factory.Options[0]
	if opts.Timeout != 10*time.Second || opts.ReadRetries != 1 {
		t.Errorf("unexpected client options: %+v", opts)
	}
	if h.Factory.Files[0] != config.DefaultCredentials {
		t.Errorf("expected default credentials, got %s", h.Factory.Files[0])
	}
}

type ctxKey struct{}

func TestCommandContext(t *testing.T) {
	if commandContext(nil) == nil {
		t.Error("expected background context for nil command")
	}

	cmd := &cobra.Command{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "x")
	cmd.SetContext(ctx)
	if commandContext(cmd) != ctx {
		t.Error("expected the command's context")
	}
}

func TestOutputResult(t *testing.T) {
	NewTestHelper(t)

	out := captureOutput(t, func() {
		_ = outputResult(newSuccessResult("example.com", "add"), "Added %s", "example.com")
	})
	if out != "✓ Added example.com\n" {
		t.Errorf("unexpected output: %q", out)
	}

	jsonOutput = true
	out = captureOutput(t, func() {
		_ = outputResult(newSuccessResult("example.com", "add"), "Added %s", "example.com")
	})
	if !bytes.Contains([]byte(out), []byte(`"action": "add"`)) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}
