package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/output"
	"github.com/ksyq12/cpaneldns/internal/provider"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the zones of a cPanel account",
	Long: `List the zones the account manages. Zones without records are skipped,
as they cannot hold challenge records.

Examples:
  cpaneldns zones
  cpaneldns zones --credentials /etc/letsencrypt/other.ini --json`,
	Args: cobra.NoArgs,
	RunE: runZones,
}

var zonesResolveCmd = &cobra.Command{
	Use:   "resolve <fqdn>",
	Short: "Show which zone manages a name",
	Long: `Show the zone with the longest name matching <fqdn> and the record name
relative to it.

Examples:
  cpaneldns zones resolve _acme-challenge.www.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runZonesResolve,
}

var zonesRecordsCmd = &cobra.Command{
	Use:   "records <zone>",
	Short: "List the records of a zone",
	Args:  cobra.ExactArgs(1),
	RunE:  runZonesRecords,
}

func init() {
	zonesCmd.AddCommand(zonesResolveCmd)
	zonesCmd.AddCommand(zonesRecordsCmd)
	rootCmd.AddCommand(zonesCmd)
}

// ZoneMatch is the JSON output of zones resolve
type ZoneMatch struct {
	FQDN string `json:"fqdn"`
	Zone string `json:"zone"`
	Name string `json:"name"`
}

// RecordInfo is one row of zones records
type RecordInfo struct {
	Line  string `json:"line"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	TTL   int    `json:"ttl"`
	Value string `json:"value"`
}

func runZones(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := clientFor(cfg, "")
	if err != nil {
		return err
	}

	zones, err := client.ListZones(commandContext(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(zones)
	}

	if len(zones) == 0 {
		output.Info("No zones with records found")
		return nil
	}
	for _, z := range zones {
		output.Print("%s", z)
	}
	return nil
}

func runZonesResolve(cmd *cobra.Command, args []string) error {
	fqdn := args[0]
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

	zone, name, err := client.ZoneFor(commandContext(cmd), fqdn)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(ZoneMatch{FQDN: fqdn, Zone: zone, Name: name})
	}

	relative := name
	if relative == "" {
		relative = "@"
	}
	output.Print("Zone:   %s", zone)
	output.Print("Record: %s", relative)
	return nil
}

func runZonesRecords(cmd *cobra.Command, args []string) error {
	zone := strings.TrimSuffix(args[0], ".")
	if err := validateDomain(zone); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := clientFor(cfg, zone)
	if err != nil {
		return err
	}

	records, err := provider.NewLibDNS(client).GetRecords(commandContext(cmd), zone+".")
	if err != nil {
		return err
	}

	infos := make([]RecordInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, RecordInfo{
			Line:  r.ID,
			Name:  r.Name,
			Type:  r.Type,
			TTL:   int(r.TTL.Seconds()),
			Value: r.Value,
		})
	}

	if jsonOutput {
		return output.JSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, r := range infos {
		rows = append(rows, []string{r.Line, r.Name, r.Type, fmt.Sprintf("%d", r.TTL), r.Value})
	}
	output.Table([]string{"LINE", "NAME", "TYPE", "TTL", "VALUE"}, rows)
	return nil
}
