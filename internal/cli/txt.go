package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/output"
)

var txtTTL int

var txtCmd = &cobra.Command{
	Use:   "txt",
	Short: "Manage TXT records",
	Long:  `Add, remove and look up TXT records by fully-qualified name.`,
}

var txtAddCmd = &cobra.Command{
	Use:   "add <fqdn> <value>",
	Short: "Add a TXT record",
	Long: `Add a TXT record in the cPanel zone with the longest matching name.

Examples:
  cpaneldns txt add _acme-challenge.example.com gfj9Xq...Rg85nM
  cpaneldns txt add _acme-challenge.www.example.com token --ttl 300`,
	Args: cobra.ExactArgs(2),
	RunE: runTXTAdd,
}

var txtDeleteCmd = &cobra.Command{
	Use:     "delete <fqdn> <value>",
	Aliases: []string{"rm"},
	Short:   "Delete all TXT records with a value",
	Long: `Delete every TXT record at <fqdn> holding <value>. Lines are removed one at
a time from the highest line number down.

Examples:
  cpaneldns txt delete _acme-challenge.example.com gfj9Xq...Rg85nM`,
	Args: cobra.ExactArgs(2),
	RunE: runTXTDelete,
}

var txtLinesCmd = &cobra.Command{
	Use:   "lines <fqdn> <value>",
	Short: "Show the zone lines holding a TXT record",
	Args:  cobra.ExactArgs(2),
	RunE:  runTXTLines,
}

func init() {
	txtCmd.PersistentFlags().IntVar(&txtTTL, "ttl", 0, "Record TTL in seconds (default from config, 60)")

	txtCmd.AddCommand(txtAddCmd)
	txtCmd.AddCommand(txtDeleteCmd)
	txtCmd.AddCommand(txtLinesCmd)

	rootCmd.AddCommand(txtCmd)
}

// TXTLines is the JSON output of txt lines
type TXTLines struct {
	FQDN  string `json:"fqdn"`
	Zone  string `json:"zone"`
	Name  string `json:"name"`
	Lines []int  `json:"lines"`
}

func runTXTAdd(cmd *cobra.Command, args []string) error {
	fqdn, value := args[0], args[1]
	if err := validateDomain(fqdn); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := clientFor(cfg, fqdn)
	if err != nil {
		return err
	}

	if err := client.AddTXTRecord(commandContext(cmd), fqdn, value, txtRecordTTL(cfg.TTLFor(fqdn))); err != nil {
		return err
	}
	return outputResult(newSuccessResult(fqdn, "add"), "Added TXT record for %s", fqdn)
}

func runTXTDelete(cmd *cobra.Command, args []string) error {
	fqdn, value := args[0], args[1]
	if err := validateDomain(fqdn); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := clientFor(cfg, fqdn)
	if err != nil {
		return err
	}

	if err := client.DeleteTXTRecord(commandContext(cmd), fqdn, value, txtRecordTTL(cfg.TTLFor(fqdn))); err != nil {
		return err
	}
	return outputResult(newSuccessResult(fqdn, "delete"), "Removed TXT records for %s", fqdn)
}

func runTXTLines(cmd *cobra.Command, args []string) error {
	fqdn, value := args[0], args[1]
	if err := validateDomain(fqdn); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := clientFor(cfg, fqdn)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	zone, name, err := client.ZoneFor(ctx, fqdn)
	if err != nil {
		return err
	}
	lines, err := client.FindRecordLines(ctx, zone, name, value, txtRecordTTL(cfg.TTLFor(fqdn)))
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(TXTLines{FQDN: fqdn, Zone: zone, Name: name, Lines: lines})
	}

	if len(lines) == 0 {
		output.Info("No TXT records for %s with that value in zone %s", fqdn, zone)
		return nil
	}
	output.Print("Zone %s, %d matching record(s):", zone, len(lines))
	for _, line := range lines {
		output.Print("  line %d", line)
	}
	return nil
}

func txtRecordTTL(configured int) int {
	if txtTTL > 0 {
		return txtTTL
	}
	return configured
}
