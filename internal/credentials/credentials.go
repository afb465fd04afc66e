// Package credentials loads cPanel account credentials from an INI file.
//
// The file uses the default section. Keys may carry a prefix so files written
// for certbot plugins keep working:
//
//	# /etc/letsencrypt/cpanel.ini
//	cpanel_url = https://cpanel.example.com:2083
//	cpanel_username = user
//	cpanel_token = 01234ABCDEF
//
// Instead of url, host and an optional port may be given; the scheme is https
// and the port defaults to 2083.
package credentials

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

// DefaultPort is the cPanel HTTPS port used when only host is given.
const DefaultPort = "2083"

// DefaultPath is where certbot setups usually keep the file.
const DefaultPath = "/etc/letsencrypt/cpanel.ini"

// Warning is a non-fatal finding about a credentials file.
type Warning string

// Load reads path and returns validated credentials. Warnings are logged.
func Load(path string) (cpanel.Credentials, error) {
	creds, warnings, err := LoadWithWarnings(path)
	for _, w := range warnings {
		logger.Warn("%s", w)
	}
	return creds, err
}

// LoadWithWarnings is Load returning warnings instead of logging them.
func LoadWithWarnings(path string) (cpanel.Credentials, []Warning, error) {
	if path == "" {
		return cpanel.Credentials{}, nil, errors.InvalidCredentials("", "credentials file is required (--credentials)")
	}

	info, err := os.Stat(path)
	if err != nil {
		return cpanel.Credentials{}, nil, errors.WrapDomain(errors.ErrCodeInvalidCredentials, path, "failed to read credentials file", err)
	}

	var warnings []Warning
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		warnings = append(warnings, Warning(fmt.Sprintf(
			"%s: unsafe permissions %#o, the file is readable by other users (chmod 600)", path, mode)))
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return cpanel.Credentials{}, warnings, errors.WrapDomain(errors.ErrCodeInvalidCredentials, path, "failed to parse credentials file", err)
	}

	creds, more, err := Parse(cfg.Section(ini.DefaultSection), path)
	return creds, append(warnings, more...), err
}

// Parse extracts credentials from an INI section. source names the file in
// errors and warnings.
func Parse(sec *ini.Section, source string) (cpanel.Credentials, []Warning, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(find(sec, key))
	}

	creds := cpanel.Credentials{
		URL:      lookup("url"),
		Username: lookup("username"),
		Token:    lookup("token"),
		Password: lookup("password"),
	}

	if creds.URL == "" {
		if host := lookup("host"); host != "" {
			creds.URL = composeURL(host, lookup("port"))
		}
	}

	if creds.URL == "" {
		return creds, nil, errors.InvalidCredentials(source, "url is required")
	}
	if creds.Username == "" {
		return creds, nil, errors.InvalidCredentials(source, "username and token (preferred) or password are required")
	}

	var warnings []Warning
	if creds.Token != "" && creds.Password != "" {
		warnings = append(warnings, Warning(fmt.Sprintf(
			"%s: token and password are exclusive, token will be used when both are provided", source)))
	}

	if err := creds.Validate(); err != nil {
		var cpErr *errors.CPanelError
		if errors.As(err, &cpErr) && cpErr.Domain == "" {
			return creds, warnings, errors.InvalidCredentials(source, cpErr.Message)
		}
		return creds, warnings, err
	}
	return creds, warnings, nil
}

// find returns the value of key, or of the first key ending in "_"+key.
// An exact match wins over a prefixed one.
func find(sec *ini.Section, key string) string {
	if sec.HasKey(key) {
		return sec.Key(key).String()
	}
	suffix := "_" + key
	for _, k := range sec.Keys() {
		if strings.HasSuffix(k.Name(), suffix) {
			return k.String()
		}
	}
	return ""
}

func composeURL(host, port string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		// port applies only when the URL carries none of its own
		u, err := url.Parse(host)
		if err != nil || port == "" || u.Port() != "" || u.Hostname() == "" {
			return host
		}
		u.Host = net.JoinHostPort(u.Hostname(), port)
		return u.String()
	}
	if port == "" {
		port = DefaultPort
	}
	return "https://" + net.JoinHostPort(host, port)
}
