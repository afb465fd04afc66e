package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/certbot"
	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/credentials"
	"github.com/ksyq12/cpaneldns/internal/executor"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the system and cPanel accounts.

Checks:
  - Certbot installation
  - Configuration file validity
  - Credentials file permissions and contents
  - cPanel API access for every account

Examples:
  cpaneldns doctor
  cpaneldns doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// Check statuses
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// defaultAccount labels the global credentials in the report
const defaultAccount = "(default)"

var certbotVersionPattern = regexp.MustCompile(`certbot (\d+\.\d+\.\d+)`)

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// AccountStatus represents the checks for one credentials file
type AccountStatus struct {
	Domain      string        `json:"domain"`
	Credentials string        `json:"credentials"`
	Checks      []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	SystemRequirements []CheckResult   `json:"system_requirements"`
	Configuration      []CheckResult   `json:"configuration"`
	Accounts           []AccountStatus `json:"accounts"`
}

// HasErrors reports whether any check failed
func (r *DoctorReport) HasErrors() bool {
	all := append(append([]CheckResult{}, r.SystemRequirements...), r.Configuration...)
	for _, a := range r.Accounts {
		all = append(all, a.Checks...)
	}
	for _, c := range all {
		if c.Status == statusError {
			return true
		}
	}
	return false
}

func runDoctor(cmd *cobra.Command, args []string) error {
	exec := executor.NewSystemExecutor()
	ctx := commandContext(cmd)

	report := &DoctorReport{}
	cfg, err := loadConfig()
	if err != nil {
		report.Configuration = []CheckResult{{Status: statusError, Message: err.Error()}}
		cfg = config.New()
	} else {
		report.Configuration = checkConfiguration(cfg)
	}
	report.SystemRequirements = checkSystemRequirements(ctx, exec, cfg)
	report.Accounts = checkAccounts(ctx, cfg)

	if jsonOutput {
		if err := output.JSON(report); err != nil {
			return err
		}
	} else {
		displayDoctorResults(report)
	}

	if report.HasErrors() {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func checkSystemRequirements(ctx context.Context, exec executor.CommandExecutor, cfg *config.Config) []CheckResult {
	binary := cfg.Certbot.Path
	if binary == "" {
		binary = certbot.DefaultBinary
	}

	if _, err := exec.LookPath(binary); err != nil {
		// Hooks work without certbot; only certonly and renew need it
		return []CheckResult{{
			Status:  statusWarning,
			Message: fmt.Sprintf("Certbot not installed (%s), certonly and renew unavailable", binary),
		}}
	}

	version := "unknown"
	if out, err := exec.Execute(ctx, binary, "--version"); err == nil {
		if m := certbotVersionPattern.FindStringSubmatch(string(out)); len(m) >= 2 {
			version = m[1]
		}
	}
	return []CheckResult{{
		Status:  statusSuccess,
		Message: fmt.Sprintf("Certbot installed (%s)", version),
	}}
}

func checkConfiguration(cfg *config.Config) []CheckResult {
	results := []CheckResult{}

	path := configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return append(results, CheckResult{Status: statusError, Message: "Could not determine config path"})
		}
		path = p
	}

	// Use ~ notation for display
	displayPath := path
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		displayPath = strings.Replace(path, home, "~", 1)
	}
	if _, err := os.Stat(path); err == nil {
		results = append(results, CheckResult{
			Status:  statusSuccess,
			Message: fmt.Sprintf("Config file valid (%s)", displayPath),
		})
	} else {
		results = append(results, CheckResult{
			Status:  statusWarning,
			Message: fmt.Sprintf("Config file not found, using defaults (%s)", displayPath),
		})
	}

	if cfg.PropagationSeconds == 0 && cfg.Resolver == "" {
		results = append(results, CheckResult{
			Status:  statusWarning,
			Message: "No propagation wait configured, validation may run before the record is served",
		})
	}

	return results
}

func checkAccounts(ctx context.Context, cfg *config.Config) []AccountStatus {
	global := cfg.Credentials
	if credentialsPath != "" {
		global = credentialsPath
	}

	statuses := []AccountStatus{checkAccount(ctx, cfg, defaultAccount, global)}
	for _, a := range cfg.ListAccounts() {
		statuses = append(statuses, checkAccount(ctx, cfg, a.Domain, a.Credentials))
	}
	return statuses
}

func checkAccount(ctx context.Context, cfg *config.Config, domain, file string) AccountStatus {
	status := AccountStatus{Domain: domain, Credentials: file, Checks: []CheckResult{}}

	_, warnings, err := credentials.LoadWithWarnings(file)
	if err != nil {
		status.Checks = append(status.Checks, CheckResult{Status: statusError, Message: err.Error()})
		return status
	}
	for _, w := range warnings {
		status.Checks = append(status.Checks, CheckResult{Status: statusWarning, Message: string(w)})
	}

	client, err := deps.ClientFactory.Create(file, ClientOptions{Timeout: cfg.Timeout, ReadRetries: cfg.ReadRetries})
	if err != nil {
		status.Checks = append(status.Checks, CheckResult{Status: statusError, Message: err.Error()})
		return status
	}

	zones, err := client.ListZones(ctx)
	switch {
	case err != nil:
		status.Checks = append(status.Checks, CheckResult{Status: statusError, Message: fmt.Sprintf("cPanel API: %v", err)})
	case len(zones) == 0:
		status.Checks = append(status.Checks, CheckResult{Status: statusWarning, Message: "cPanel API reachable, but no zones with records"})
	default:
		status.Checks = append(status.Checks, CheckResult{
			Status:  statusSuccess,
			Message: fmt.Sprintf("cPanel API reachable, %d zone(s): %s", len(zones), strings.Join(zones, ", ")),
		})
	}
	return status
}

func displayDoctorResults(report *DoctorReport) {
	output.Print("Checking system requirements...")
	for _, check := range report.SystemRequirements {
		displayCheck(check)
	}
	output.Print("")

	output.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(check)
	}
	output.Print("")

	output.Print("Checking accounts...")
	for _, a := range report.Accounts {
		output.Print("  %s (%s)", a.Domain, a.Credentials)
		for _, check := range a.Checks {
			displayCheck(check)
		}
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case statusSuccess:
		output.Success("%s", check.Message)
	case statusWarning:
		output.Warn("%s", check.Message)
	case statusError:
		output.Error("%s", check.Message)
	}
}
