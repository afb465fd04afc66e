package certbot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
)

// DefaultConfigDir is certbot's default --config-dir.
const DefaultConfigDir = "/etc/letsencrypt"

// Lineage is the set of files certbot keeps for one certificate.
type Lineage struct {
	Name          string
	Dir           string
	CertPath      string
	KeyPath       string
	ChainPath     string
	FullChainPath string
}

// NewLineage returns the live lineage for name under configDir.
func NewLineage(configDir, name string) *Lineage {
	if configDir == "" {
		configDir = DefaultConfigDir
	}
	return LineageAt(filepath.Join(configDir, "live", name))
}

// LineageAt returns the lineage stored in dir, such as RENEWED_LINEAGE.
func LineageAt(dir string) *Lineage {
	return &Lineage{
		Name:          filepath.Base(dir),
		Dir:           dir,
		CertPath:      filepath.Join(dir, "cert.pem"),
		KeyPath:       filepath.Join(dir, "privkey.pem"),
		ChainPath:     filepath.Join(dir, "chain.pem"),
		FullChainPath: filepath.Join(dir, "fullchain.pem"),
	}
}

// Bundle reads the lineage files for domain.
func (l *Lineage) Bundle(domain string) (cpanel.CertificateBundle, error) {
	return ReadBundle(domain, l.CertPath, l.KeyPath, l.ChainPath)
}

// ReadBundle reads a certificate, its key and an optional chain from disk.
func ReadBundle(domain, certPath, keyPath, chainPath string) (cpanel.CertificateBundle, error) {
	if strings.TrimSpace(domain) == "" {
		return cpanel.CertificateBundle{}, errors.Validation("domain is required")
	}

	cert, err := readPEM(certPath, "certificate")
	if err != nil {
		return cpanel.CertificateBundle{}, err
	}
	key, err := readPEM(keyPath, "private key")
	if err != nil {
		return cpanel.CertificateBundle{}, err
	}

	var chain string
	if chainPath != "" {
		chain, err = readPEM(chainPath, "chain")
		if err != nil {
			return cpanel.CertificateBundle{}, err
		}
	}

	return cpanel.CertificateBundle{
		Domain:      domain,
		Certificate: cert,
		PrivateKey:  key,
		CABundle:    chain,
	}, nil
}

func readPEM(path, what string) (string, error) {
	if path == "" {
		return "", errors.Validation(what + " path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapDomain(errors.ErrCodeCertbot, path, "failed to read "+what, err)
	}
	if !strings.Contains(string(data), "-----BEGIN ") {
		return "", errors.WrapDomain(errors.ErrCodeCertbot, path, what+" is not PEM encoded", nil)
	}
	return string(data), nil
}
