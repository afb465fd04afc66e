package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/credentials"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var (
	accountTTL  int
	accountNote string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage per-domain cPanel accounts",
	Long: `Map domains to credentials files when one host serves zones from several
cPanel accounts. A name uses the account with the longest matching domain,
and the global credentials when none matches.`,
}

var accountsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured accounts",
	Args:    cobra.NoArgs,
	RunE:    runAccountsList,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <domain> <credentials-file>",
	Short: "Use a credentials file for a domain and its subdomains",
	Long: `Use a credentials file for a domain and its subdomains. The file is
checked before it is saved.

Examples:
  cpaneldns accounts add example.org /etc/letsencrypt/example-org.ini
  cpaneldns accounts add shop.example.com /etc/letsencrypt/shop.ini --ttl 120`,
	Args: cobra.ExactArgs(2),
	RunE: runAccountsAdd,
}

var accountsRemoveCmd = &cobra.Command{
	Use:     "remove <domain>",
	Aliases: []string{"rm"},
	Short:   "Remove an account",
	Args:    cobra.ExactArgs(1),
	RunE:    runAccountsRemove,
}

func init() {
	accountsAddCmd.Flags().IntVar(&accountTTL, "ttl", 0, "TTL for records in this account (default: global ttl)")
	accountsAddCmd.Flags().StringVar(&accountNote, "note", "", "Free-form note")

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accounts := cfg.ListAccounts()
	if jsonOutput {
		return output.JSON(accounts)
	}

	if len(accounts) == 0 {
		output.Info("No accounts configured, all domains use %s", cfg.Credentials)
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		ttl := "-"
		if a.TTL > 0 {
			ttl = fmt.Sprintf("%d", a.TTL)
		}
		rows = append(rows, []string{a.Domain, a.Credentials, ttl, a.Note})
	}
	output.Table([]string{"DOMAIN", "CREDENTIALS", "TTL", "NOTE"}, rows)
	return nil
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	domain, file := args[0], args[1]
	if err := validateDomain(domain); err != nil {
		return err
	}
	if accountTTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}

	_, warnings, err := credentials.LoadWithWarnings(file)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		output.Warn("%s", w)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	account := &config.Account{
		Domain:      domain,
		Credentials: absPath(file),
		TTL:         accountTTL,
		Note:        accountNote,
		CreatedAt:   time.Now(),
	}
	if err := cfg.AddAccount(account); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}

	return outputResult(newSuccessResult(account.Domain, "add"), "Account added for %s", account.Domain)
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RemoveAccount(args[0]); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	return outputResult(newSuccessResult(args[0], "remove"), "Account removed for %s", args[0])
}
