package certbot

import (
	"os"
	"strconv"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
)

// Environment variables certbot sets for manual and deploy hooks.
const (
	EnvDomain              = "CERTBOT_DOMAIN"
	EnvValidation          = "CERTBOT_VALIDATION"
	EnvRemainingChallenges = "CERTBOT_REMAINING_CHALLENGES"
	EnvAllDomains          = "CERTBOT_ALL_DOMAINS"

	EnvRenewedLineage = "RENEWED_LINEAGE"
	EnvRenewedDomains = "RENEWED_DOMAINS"
)

const manualHooks = "--manual-auth-hook or --manual-cleanup-hook"

// ChallengeLabel is prepended to a domain to form its DNS-01 record name.
const ChallengeLabel = "_acme-challenge"

// Getenv looks up an environment variable; os.Getenv satisfies it.
type Getenv func(key string) string

// Challenge is one DNS-01 challenge as certbot hands it to a manual hook.
type Challenge struct {
	Domain              string
	Validation          string
	RemainingChallenges int
	AllDomains          []string
}

// ReadChallenge parses the manual-auth/cleanup hook environment.
// A nil getenv reads the process environment.
func ReadChallenge(getenv Getenv) (*Challenge, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	c := &Challenge{
		Domain:     strings.TrimSpace(getenv(EnvDomain)),
		Validation: strings.TrimSpace(getenv(EnvValidation)),
		AllDomains: splitList(getenv(EnvAllDomains)),
	}
	if c.Domain == "" {
		return nil, missingEnv(EnvDomain, manualHooks)
	}
	if c.Validation == "" {
		return nil, missingEnv(EnvValidation, manualHooks)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(EnvRemainingChallenges))); err == nil {
		c.RemainingChallenges = n
	}
	return c, nil
}

// FQDN is the validation record name for the challenge.
func (c *Challenge) FQDN() string {
	return ChallengeFQDN(c.Domain)
}

// ChallengeFQDN returns _acme-challenge.<domain>, with a wildcard label removed.
func ChallengeFQDN(domain string) string {
	d := strings.TrimSuffix(cpanel.StripWildcard(domain), ".")
	return ChallengeLabel + "." + d
}

// Deployment is what certbot hands a deploy hook after issuance or renewal.
type Deployment struct {
	Lineage *Lineage
	Domains []string
}

// ReadDeployment parses the deploy hook environment.
func ReadDeployment(getenv Getenv) (*Deployment, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	dir := strings.TrimSpace(getenv(EnvRenewedLineage))
	if dir == "" {
		return nil, missingEnv(EnvRenewedLineage, "--deploy-hook")
	}
	domains := splitList(getenv(EnvRenewedDomains))
	if len(domains) == 0 {
		return nil, missingEnv(EnvRenewedDomains, "--deploy-hook")
	}

	return &Deployment{
		Lineage: LineageAt(dir),
		Domains: domains,
	}, nil
}

// InstallDomains returns the domains to install the certificate for: the
// first one, or every distinct one with wildcards stripped when all is set.
func (d *Deployment) InstallDomains(all bool) []string {
	if len(d.Domains) == 0 {
		return nil
	}
	if !all {
		return []string{cpanel.StripWildcard(d.Domains[0])}
	}

	seen := make(map[string]bool, len(d.Domains))
	var out []string
	for _, domain := range d.Domains {
		base := cpanel.StripWildcard(domain)
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, base)
	}
	return out
}

func missingEnv(key, hook string) error {
	return errors.WrapDomain(errors.ErrCodeCertbot, key,
		"environment variable is not set; run this command as certbot "+hook, nil)
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
}
