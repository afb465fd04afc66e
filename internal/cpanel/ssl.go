package cpanel

import (
	"context"
	"net/url"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

// CertificateBundle is what installssl needs for one domain, PEM encoded.
type CertificateBundle struct {
	Domain      string
	Certificate string
	PrivateKey  string
	CABundle    string
}

type installData struct {
	Result flexInt `json:"result"`
	Output string  `json:"output"`
	Reason string  `json:"reason"`
}

// StripWildcard removes one leading "*." label. cPanel installs a wildcard
// certificate under its base domain.
func StripWildcard(domain string) string {
	return strings.TrimPrefix(strings.TrimSpace(domain), "*.")
}

// InstallCertificate uploads bundle to the account's SSL store. It is sent
// once; cPanel does not duplicate an identical certificate.
func (c *Client) InstallCertificate(ctx context.Context, bundle CertificateBundle) error {
	domain := StripWildcard(bundle.Domain)
	if domain == "" {
		return errors.Validation("certificate domain cannot be empty")
	}
	if bundle.Certificate == "" || bundle.PrivateKey == "" {
		return errors.Validation("certificate and private key are required")
	}

	params := url.Values{}
	params.Set("domain", domain)
	params.Set("crt", bundle.Certificate)
	params.Set("key", bundle.PrivateKey)
	if bundle.CABundle != "" {
		params.Set("cabundle", bundle.CABundle)
	}

	res, err := c.write(ctx, moduleSSL, "installssl", params)
	if err != nil {
		return err
	}

	var data []installData
	if err := res.decodeData("installssl", &data); err != nil {
		if msg := res.message(); msg != "" {
			return errors.CertInstall(domain, msg)
		}
		return err
	}
	if len(data) == 0 {
		msg := res.Error
		if msg == "" {
			msg = "empty response"
		}
		return errors.CertInstall(domain, msg)
	}
	if data[0].Result != 1 {
		return errors.CertInstall(domain, data[0].message(res.Error))
	}

	logger.Info("Successfully added SSL certificate for %s", domain)
	return nil
}

func (d installData) message(fallback string) string {
	switch {
	case d.Output != "":
		return d.Output
	case d.Reason != "":
		return d.Reason
	default:
		return fallback
	}
}
