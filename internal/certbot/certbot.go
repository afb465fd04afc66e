package certbot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/executor"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

// DefaultBinary is the certbot executable looked up on PATH.
const DefaultBinary = "certbot"

// cmdExecutor is the command executor (can be replaced for testing)
var cmdExecutor executor.CommandExecutor = executor.NewSystemExecutor()

// SetExecutor allows tests to inject a mock executor
func SetExecutor(exec executor.CommandExecutor) {
	cmdExecutor = exec
}

// ResetExecutor resets the executor to the default system executor
func ResetExecutor() {
	cmdExecutor = executor.NewSystemExecutor()
}

// IsInstalled checks if the certbot binary is available
func IsInstalled(binary string) bool {
	_, err := cmdExecutor.LookPath(binaryOrDefault(binary))
	return err == nil
}

func binaryOrDefault(binary string) string {
	if binary == "" {
		return DefaultBinary
	}
	return binary
}

// run executes certbot with output streamed to w
func run(ctx context.Context, w io.Writer, binary string, args []string) error {
	binary = binaryOrDefault(binary)
	if !IsInstalled(binary) {
		return errors.Wrap(errors.ErrCodeCertbot, "certbot is not installed. Install it with: apt install certbot", nil)
	}

	logger.Debug("running %s %s", binary, strings.Join(args, " "))
	if err := cmdExecutor.Stream(ctx, w, binary, args...); err != nil {
		return errors.Wrap(errors.ErrCodeCertbot, "certbot failed", err)
	}
	return nil
}

// CertOnlyOptions describes a certonly run that solves DNS-01 challenges
// through this program's hook commands.
type CertOnlyOptions struct {
	Binary    string
	Domains   []string
	Email     string
	ConfigDir string
	CertName  string
	Staging   bool
	DryRun    bool

	// Hooks are the shell commands certbot runs for each phase.
	Hooks Hooks
}

// Hooks holds the manual-auth, manual-cleanup and deploy hook commands.
type Hooks struct {
	Auth    string
	Cleanup string
	Deploy  string
}

// NewHooks builds hook commands invoking self with the given global flags,
// each followed by its subcommand (auth, cleanup, deploy).
func NewHooks(self string, flags ...string) Hooks {
	build := func(sub string) string {
		parts := make([]string, 0, len(flags)+2)
		parts = append(parts, shellQuote(self))
		for _, f := range flags {
			parts = append(parts, shellQuote(f))
		}
		parts = append(parts, sub)
		return strings.Join(parts, " ")
	}
	return Hooks{
		Auth:    build("auth"),
		Cleanup: build("cleanup"),
		Deploy:  build("deploy"),
	}
}

// Args returns the certbot command line for opts.
func (o CertOnlyOptions) Args() ([]string, error) {
	if len(o.Domains) == 0 {
		return nil, errors.Validation("at least one domain is required (-d)")
	}
	if o.Hooks.Auth == "" || o.Hooks.Cleanup == "" {
		return nil, errors.Validation("auth and cleanup hooks are required")
	}

	args := []string{
		"certonly",
		"--manual",
		"--preferred-challenges", "dns",
		"--manual-auth-hook", o.Hooks.Auth,
		"--manual-cleanup-hook", o.Hooks.Cleanup,
	}
	if o.Hooks.Deploy != "" {
		args = append(args, "--deploy-hook", o.Hooks.Deploy)
	}
	for _, d := range o.Domains {
		args = append(args, "-d", d)
	}
	if o.Email != "" {
		args = append(args, "--email", o.Email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}
	if o.CertName != "" {
		args = append(args, "--cert-name", o.CertName)
	}
	if o.ConfigDir != "" {
		args = append(args, "--config-dir", o.ConfigDir)
	}
	if o.Staging {
		args = append(args, "--staging")
	}
	if o.DryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, "--agree-tos", "--non-interactive")
	return args, nil
}

// CertOnly obtains a certificate, streaming certbot's output to w, and
// returns the lineage it was saved to.
func CertOnly(ctx context.Context, w io.Writer, opts CertOnlyOptions) (*Lineage, error) {
	args, err := opts.Args()
	if err != nil {
		return nil, err
	}
	if err := run(ctx, w, opts.Binary, args); err != nil {
		return nil, err
	}

	name := opts.CertName
	if name == "" {
		name = strings.TrimPrefix(opts.Domains[0], "*.")
	}
	return NewLineage(opts.ConfigDir, name), nil
}

// Renew renews one certificate, or all when certName is empty. Hooks stored
// in the renewal configuration run again.
func Renew(ctx context.Context, w io.Writer, binary, certName string) error {
	args := []string{"renew", "--non-interactive"}
	if certName != "" {
		args = append(args, "--cert-name", certName)
	}
	return run(ctx, w, binary, args)
}

// List returns the names of certificates certbot manages.
func List(ctx context.Context, binary string) ([]string, error) {
	binary = binaryOrDefault(binary)
	if !IsInstalled(binary) {
		return nil, errors.Wrap(errors.ErrCodeCertbot, "certbot is not installed", nil)
	}

	output, err := cmdExecutor.Execute(ctx, binary, "certificates")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCertbot, fmt.Sprintf("certbot certificates failed: %s", strings.TrimSpace(string(output))), err)
	}

	// Parse output to extract certificate names
	var names []string
	for _, line := range strings.Split(string(output), "\n") {
		if _, after, ok := strings.Cut(line, "Certificate Name:"); ok {
			names = append(names, strings.TrimSpace(after))
		}
	}
	return names, nil
}

// shellQuote quotes s for /bin/sh when it contains anything but safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:@,+", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
