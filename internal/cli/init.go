package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/credentials"
	"github.com/ksyq12/cpaneldns/internal/input"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var (
	initURL      string
	initUsername string
	initToken    string
	initPassword string
	initForce    bool
	initVerify   bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a credentials file",
	Long: `Write a cPanel credentials file readable only by its owner. Values not
given as flags are prompted for. The path defaults to --credentials, then to
the configured credentials file.

Create an API token in cPanel under Security > Manage API Tokens.

Examples:
  cpaneldns init
  cpaneldns init /etc/letsencrypt/cpanel.ini --url https://cpanel.example.com:2083 \
    --username user --token ABCDEF0123456789 --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "cPanel URL, e.g. https://cpanel.example.com:2083")
	initCmd.Flags().StringVar(&initUsername, "username", "", "cPanel username")
	initCmd.Flags().StringVar(&initToken, "token", "", "cPanel API token")
	initCmd.Flags().StringVar(&initPassword, "password", "", "cPanel password (a token is preferred)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file without asking")
	initCmd.Flags().BoolVar(&initVerify, "verify", false, "List zones with the new credentials")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := credentialsFileFor(cfg, "")
	if len(args) == 1 {
		path = args[0]
	}

	overwrite := initForce
	if _, err := os.Stat(path); err == nil && !overwrite {
		ok, err := input.Confirm(deps.StdinReader, output.Writer(), fmt.Sprintf("%s exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			output.Info("Aborted")
			return nil
		}
		overwrite = true
	}

	creds, err := promptCredentials()
	if err != nil {
		return err
	}

	if err := credentials.Save(path, creds, "", overwrite); err != nil {
		return err
	}

	if initVerify {
		client, err := deps.ClientFactory.Create(path, ClientOptions{Timeout: cfg.Timeout, ReadRetries: cfg.ReadRetries})
		if err != nil {
			return err
		}
		zones, err := client.ListZones(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("credentials saved to %s but the cPanel API check failed: %w", path, err)
		}
		if !jsonOutput {
			output.Info("Account manages %d zone(s)", len(zones))
		}
	}

	return outputResult(newSuccessResult(path, "init"), "Credentials written to %s", path)
}

// promptCredentials fills in values not given as flags
func promptCredentials() (cpanel.Credentials, error) {
	creds := cpanel.Credentials{
		URL:      initURL,
		Username: initUsername,
		Token:    initToken,
		Password: initPassword,
	}

	ask := func(dst *string, label string) error {
		if *dst != "" {
			return nil
		}
		v, err := input.Prompt(deps.StdinReader, output.Writer(), label, "")
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	if err := ask(&creds.URL, "cPanel URL"); err != nil {
		return creds, err
	}
	if err := ask(&creds.Username, "Username"); err != nil {
		return creds, err
	}
	if creds.Token == "" && creds.Password == "" {
		if err := ask(&creds.Token, "API token (empty to use a password)"); err != nil {
			return creds, err
		}
		if creds.Token == "" {
			if err := ask(&creds.Password, "Password"); err != nil {
				return creds, err
			}
		}
	}
	return creds, nil
}
