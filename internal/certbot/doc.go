// Package certbot connects cpaneldns to certbot.
//
// certbot drives the ACME exchange; this package covers the three places
// where it calls out to us, plus running certbot itself.
//
// # Hook Environment
//
// A manual-auth or manual-cleanup hook receives the challenge through the
// environment:
//
//	ch, err := certbot.ReadChallenge(os.Getenv)
//	// ch.FQDN()     = "_acme-challenge.example.com"
//	// ch.Validation = the TXT value to publish
//
// A deploy hook receives the lineage directory and the certificate's names:
//
//	dep, err := certbot.ReadDeployment(os.Getenv)
//	bundle, err := dep.Lineage.Bundle(dep.InstallDomains(false)[0])
//
// # Certificate Issuance
//
// CertOnly runs certbot in manual DNS mode with hooks that call back into
// this binary:
//
//	hooks := certbot.NewHooks("/usr/local/bin/cpaneldns", "--credentials", "/etc/letsencrypt/cpanel.ini")
//	lineage, err := certbot.CertOnly(ctx, os.Stdout, certbot.CertOnlyOptions{
//	    Domains: []string{"example.com", "*.example.com"},
//	    Email:   "admin@example.com",
//	    Hooks:   hooks,
//	})
//
// certbot stores the hooks in the renewal configuration, so `certbot renew`
// repeats the same flow unattended.
//
// # Certificate Paths
//
// Certificates are stored in Let's Encrypt's standard directory:
//
//	/etc/letsencrypt/live/{name}/cert.pem       (leaf certificate)
//	/etc/letsencrypt/live/{name}/privkey.pem    (private key)
//	/etc/letsencrypt/live/{name}/chain.pem      (issuer chain, sent as CA bundle)
//	/etc/letsencrypt/live/{name}/fullchain.pem  (leaf + chain)
//
// # Testing
//
// The package uses a global executor that can be replaced for testing:
//
//	mockExec := &executor.MockExecutor{}
//	certbot.SetExecutor(mockExec)
//	defer certbot.ResetExecutor()
package certbot
