// Package config manages cpaneldns tool settings stored in YAML format.
//
// Settings live in the user's home directory at
// ~/.config/cpaneldns/config.yaml. A missing file is not an error: every
// field has a default, and command-line flags override the file.
//
// Example config.yaml:
//
//	credentials: /etc/letsencrypt/cpanel.ini
//	ttl: 60
//	timeout: 30s
//	read_retries: 3
//	propagation_seconds: 30
//	resolver: ""
//	certbot:
//	  email: admin@example.com
//	accounts:
//	  shop.example.org:
//	    domain: shop.example.org
//	    credentials: /etc/letsencrypt/cpanel-shop.ini
//	    created_at: 2026-02-01T10:00:00Z
//
// # Accounts
//
// A host serving several cPanel accounts maps each domain to its own
// credentials file. Names under the longest matching account domain use that
// account; everything else uses the top-level credentials.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	path := cfg.CredentialsFor("_acme-challenge.www.shop.example.org")
//
// # Thread Safety
//
// Config operations are NOT thread-safe. Callers must implement their own
// synchronization if accessing Config from multiple goroutines.
package config
