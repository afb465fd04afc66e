package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/certbot"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var (
	certDomains  []string
	certEmail    string
	certName     string
	certStaging  bool
	certDryRun   bool
	certInstall  bool
	renewAllFlag bool
)

var certonlyCmd = &cobra.Command{
	Use:   "certonly",
	Short: "Obtain a certificate with certbot using cPanel DNS",
	Long: `Run certbot in manual DNS mode with this program as its auth and cleanup
hooks. With --install the certificate is also installed in cPanel, now and on
every renewal.

Examples:
  cpaneldns certonly -d example.com -d '*.example.com' --email admin@example.com
  cpaneldns certonly -d example.com --install --staging`,
	Args: cobra.NoArgs,
	RunE: runCertOnly,
}

var renewCmd = &cobra.Command{
	Use:   "renew [cert-name]",
	Short: "Renew certificates with certbot",
	Long: `Renew one certificate, or all of them with --all. The hooks recorded when
the certificate was issued run again.

Examples:
  cpaneldns renew example.com
  cpaneldns renew --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRenew,
}

func init() {
	certonlyCmd.Flags().StringSliceVarP(&certDomains, "domain", "d", nil, "Domain to include in the certificate (repeatable)")
	certonlyCmd.Flags().StringVarP(&certEmail, "email", "e", "", "Email address for the ACME account (default from config)")
	certonlyCmd.Flags().StringVar(&certName, "cert-name", "", "Certificate name (default: first domain)")
	certonlyCmd.Flags().BoolVar(&certStaging, "staging", false, "Use the staging ACME server")
	certonlyCmd.Flags().BoolVar(&certDryRun, "dry-run", false, "Test issuance without saving a certificate")
	certonlyCmd.Flags().BoolVar(&certInstall, "install", false, "Install the certificate in cPanel after issuance and renewal")
	_ = certonlyCmd.MarkFlagRequired("domain")

	renewCmd.Flags().BoolVar(&renewAllFlag, "all", false, "Renew all certificates")

	rootCmd.AddCommand(certonlyCmd)
	rootCmd.AddCommand(renewCmd)
}

// CertResult is the JSON output of certonly
type CertResult struct {
	Success   bool     `json:"success"`
	Name      string   `json:"name"`
	Domains   []string `json:"domains"`
	CertPath  string   `json:"cert_path"`
	KeyPath   string   `json:"key_path"`
	ChainPath string   `json:"chain_path"`
	Installed bool     `json:"installed"`
}

func runCertOnly(cmd *cobra.Command, args []string) error {
	for _, d := range certDomains {
		if err := validateDomain(d); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	self, err := deps.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate own executable: %w", err)
	}
	hooks := certbot.NewHooks(self, hookFlags()...)
	if !certInstall {
		hooks.Deploy = ""
	}

	email := certEmail
	if email == "" {
		email = cfg.Certbot.Email
	}

	opts := certbot.CertOnlyOptions{
		Binary:    cfg.Certbot.Path,
		Domains:   certDomains,
		Email:     email,
		ConfigDir: cfg.Certbot.ConfigDir,
		CertName:  certName,
		Staging:   certStaging,
		DryRun:    certDryRun,
		Hooks:     hooks,
	}

	if !jsonOutput {
		output.Info("Requesting certificate for %v...", certDomains)
	}
	// certbot output goes to stderr in JSON mode so stdout stays parseable
	w := output.Writer()
	if jsonOutput {
		w = cmd.ErrOrStderr()
	}
	lineage, err := certbot.CertOnly(commandContext(cmd), w, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(CertResult{
			Success:   true,
			Name:      lineage.Name,
			Domains:   certDomains,
			CertPath:  lineage.CertPath,
			KeyPath:   lineage.KeyPath,
			ChainPath: lineage.ChainPath,
			Installed: certInstall && !certDryRun,
		})
	}

	if certDryRun {
		output.Success("Dry run succeeded for %v", certDomains)
		return nil
	}
	output.Success("Certificate issued: %s", lineage.Name)
	output.Print("  Certificate: %s", lineage.CertPath)
	output.Print("  Private Key: %s", lineage.KeyPath)
	output.Print("  Chain:       %s", lineage.ChainPath)
	return nil
}

func runRenew(cmd *cobra.Command, args []string) error {
	if !renewAllFlag && len(args) == 0 {
		return fmt.Errorf("specify a certificate name or use --all to renew all certificates")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	w := output.Writer()
	if jsonOutput {
		w = cmd.ErrOrStderr()
	}
	if err := certbot.Renew(commandContext(cmd), w, cfg.Certbot.Path, name); err != nil {
		return err
	}

	if name == "" {
		return outputResult(map[string]interface{}{"success": true, "renewed": "all"}, "All certificates renewed")
	}
	return outputResult(newSuccessResult(name, "renew"), "Certificate renewed for %s", name)
}

// hookFlags returns the global flags hook commands need to find the same
// credentials and config as this invocation.
func hookFlags() []string {
	var flags []string
	if credentialsPath != "" {
		flags = append(flags, "--credentials="+absPath(credentialsPath))
	}
	if configPath != "" {
		flags = append(flags, "--config="+absPath(configPath))
	}
	if timeout > 0 {
		flags = append(flags, "--timeout="+timeout.String())
	}
	return flags
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
