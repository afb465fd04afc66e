package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/certbot"
	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var (
	propagationSeconds int
	resolverAddr       string

	deployDomain string
	deployCert   string
	deployKey    string
	deployChain  string
	deployAll    bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "certbot manual-auth-hook: publish the DNS-01 TXT record",
	Long: `Publish the TXT record for the challenge certbot is running.

Reads CERTBOT_DOMAIN and CERTBOT_VALIDATION, adds the value at
_acme-challenge.<domain> in the cPanel zone that manages it, then waits for
the record to propagate once the last challenge has been published.

Examples:
  certbot certonly --manual --preferred-challenges dns \
    --manual-auth-hook "cpaneldns auth" \
    --manual-cleanup-hook "cpaneldns cleanup" -d example.com`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "certbot manual-cleanup-hook: remove the DNS-01 TXT record",
	Long: `Remove every TXT record at _acme-challenge.<domain> holding the challenge
value. Records that are already gone are not an error.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "certbot deploy-hook: install the certificate in cPanel",
	Long: `Install an issued certificate through cPanel's SSL module.

As a deploy hook it reads RENEWED_LINEAGE and RENEWED_DOMAINS and installs the
certificate for the first domain, or for every domain with --all-domains.
Outside certbot, pass the files explicitly.

Examples:
  certbot renew --deploy-hook "cpaneldns deploy"
  cpaneldns deploy --domain example.com --cert cert.pem --key privkey.pem --chain chain.pem`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	authCmd.Flags().IntVar(&propagationSeconds, "propagation-seconds", 30, "Seconds to wait for the record to propagate (overrides config)")
	authCmd.Flags().StringVar(&resolverAddr, "resolver", "", "Poll this DNS server (host[:port]) for the record instead of sleeping")

	deployCmd.Flags().StringVarP(&deployDomain, "domain", "d", "", "Domain to install the certificate for")
	deployCmd.Flags().StringVar(&deployCert, "cert", "", "Certificate file (PEM)")
	deployCmd.Flags().StringVar(&deployKey, "key", "", "Private key file (PEM)")
	deployCmd.Flags().StringVar(&deployChain, "chain", "", "CA chain file (PEM)")
	deployCmd.Flags().BoolVar(&deployAll, "all-domains", false, "Install for every domain of the lineage")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(deployCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	ch, err := certbot.ReadChallenge(deps.Getenv)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fqdn := ch.FQDN()
	client, err := clientFor(cfg, fqdn)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if err := client.AddTXTRecord(ctx, fqdn, ch.Validation, cfg.TTLFor(fqdn)); err != nil {
		return err
	}

	// certbot validates only after the last auth hook returns
	if ch.RemainingChallenges > 0 {
		logger.Debug("%d challenges remaining, not waiting for %s yet", ch.RemainingChallenges, fqdn)
	} else {
		seconds, resolver := cfg.PropagationSeconds, cfg.Resolver
		if flagChanged(cmd, "propagation-seconds") {
			seconds = propagationSeconds
		}
		if flagChanged(cmd, "resolver") {
			resolver = resolverAddr
		}
		if err := deps.WaiterFactory.Create(seconds, resolver).Wait(ctx, fqdn, ch.Validation); err != nil {
			return err
		}
	}

	return outputResult(newSuccessResult(fqdn, "auth"), "Added TXT record for %s", fqdn)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ch, err := certbot.ReadChallenge(deps.Getenv)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fqdn := ch.FQDN()
	client, err := clientFor(cfg, fqdn)
	if err != nil {
		return err
	}

	if err := client.DeleteTXTRecord(commandContext(cmd), fqdn, ch.Validation, cfg.TTLFor(fqdn)); err != nil {
		return err
	}

	return outputResult(newSuccessResult(fqdn, "cleanup"), "Removed TXT record for %s", fqdn)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	bundles, err := deployBundles()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	results := make([]CommandResult, 0, len(bundles))
	for _, b := range bundles {
		client, err := clientFor(cfg, b.Domain)
		if err != nil {
			return err
		}

		if !jsonOutput {
			output.Info("Installing certificate for %s...", b.Domain)
		}
		if err := client.InstallCertificate(ctx, b); err != nil {
			return err
		}
		if !jsonOutput {
			output.Success("Certificate installed for %s", b.Domain)
		}
		results = append(results, newSuccessResult(b.Domain, "deploy"))
	}

	if jsonOutput {
		return output.JSON(results)
	}
	return nil
}

// deployBundles reads the certificates to install, from flags or from the
// deploy hook environment.
func deployBundles() ([]cpanel.CertificateBundle, error) {
	if deployCert != "" || deployKey != "" {
		if deployDomain == "" {
			return nil, errors.Validation("--domain is required with --cert and --key")
		}
		if deployCert == "" || deployKey == "" {
			return nil, errors.Validation("--cert and --key must be given together")
		}
		b, err := certbot.ReadBundle(cpanel.StripWildcard(deployDomain), deployCert, deployKey, deployChain)
		if err != nil {
			return nil, err
		}
		return []cpanel.CertificateBundle{b}, nil
	}

	d, err := certbot.ReadDeployment(deps.Getenv)
	if err != nil {
		return nil, err
	}

	domains := d.InstallDomains(deployAll)
	if deployDomain != "" {
		domains = []string{cpanel.StripWildcard(deployDomain)}
	}

	bundles := make([]cpanel.CertificateBundle, 0, len(domains))
	for _, domain := range domains {
		b, err := d.Lineage.Bundle(domain)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
