package credentials

import (
	"os"
	"path/filepath"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/template"
)

// Save writes creds to path readable by the owner only. An existing file is
// replaced only when overwrite is set. comment, if any, is written as a
// comment line.
func Save(path string, creds cpanel.Credentials, comment string, overwrite bool) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	content, err := template.RenderCredentials(template.CredentialsData{
		URL:      creds.URL,
		Username: creds.Username,
		Token:    creds.Token,
		Password: creds.Password,
		Comment:  comment,
	})
	if err != nil {
		return errors.WrapDomain(errors.ErrCodeInvalidCredentials, path, "failed to render credentials", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to create directory", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if os.IsExist(err) {
			return errors.WrapDomain(errors.ErrCodeConfig, path, "credentials file already exists", err)
		}
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to write credentials", err)
	}
	defer f.Close()

	// OpenFile keeps the mode of a file it truncates
	if err := f.Chmod(0600); err != nil {
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to restrict permissions", err)
	}
	if _, err := f.WriteString(content); err != nil {
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to write credentials", err)
	}
	return f.Close()
}
