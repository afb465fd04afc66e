package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ksyq12/cpaneldns/internal/config"
	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/input"
	"github.com/ksyq12/cpaneldns/internal/propagation"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls int
	Paths     []string
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	m.Paths = append(m.Paths, path)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config, path string) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	return nil
}

// ServiceCall records one call made on MockService
type ServiceCall struct {
	Method  string
	Target  string
	Content string
	TTL     int
}

// MockService is an in-memory cpanel.Service. TXT records are keyed by
// fully-qualified name.
type MockService struct {
	Zones        []string
	TXT          map[string][]string
	Records      map[string][]cpanel.ZoneRecord
	Certificates []cpanel.CertificateBundle
	Calls        []ServiceCall
	Err          error

	mu sync.Mutex
}

var _ cpanel.Service = (*MockService)(nil)

// NewMockService returns a service managing zones
func NewMockService(zones ...string) *MockService {
	return &MockService{
		Zones:   zones,
		TXT:     make(map[string][]string),
		Records: make(map[string][]cpanel.ZoneRecord),
	}
}

func (m *MockService) record(method, target, content string, ttl int) {
	m.Calls = append(m.Calls, ServiceCall{Method: method, Target: target, Content: content, TTL: ttl})
}

// Methods returns the names of the methods called, in order
func (m *MockService) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	methods := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		methods = append(methods, c.Method)
	}
	return methods
}

func (m *MockService) ListZones(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListZones", "", "", 0)
	if m.Err != nil {
		return nil, m.Err
	}
	zones := append([]string(nil), m.Zones...)
	sort.Strings(zones)
	return zones, nil
}

func (m *MockService) ZoneFor(ctx context.Context, fqdn string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ZoneFor", fqdn, "", 0)
	if m.Err != nil {
		return "", "", m.Err
	}
	return cpanel.ResolveZone(m.Zones, fqdn)
}

func (m *MockService) ListRecords(ctx context.Context, zone string) ([]cpanel.ZoneRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListRecords", zone, "", 0)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records[zone], nil
}

func (m *MockService) FindRecordLines(ctx context.Context, zone, name, content string, ttl int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindRecordLines", name+"."+zone, content, ttl)
	if m.Err != nil {
		return nil, m.Err
	}
	fqdn := zone
	if name != "" {
		fqdn = name + "." + zone
	}
	lines := []int{}
	for i, v := range m.TXT[fqdn] {
		if v == content {
			lines = append(lines, i+1)
		}
	}
	return lines, nil
}

func (m *MockService) AddRecord(ctx context.Context, zone, name, content string, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddRecord", name+"."+zone, content, ttl)
	return m.Err
}

func (m *MockService) AddTXTRecord(ctx context.Context, fqdn, content string, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddTXTRecord", fqdn, content, ttl)
	if m.Err != nil {
		return m.Err
	}
	if _, _, err := cpanel.ResolveZone(m.Zones, fqdn); err != nil {
		return err
	}
	m.TXT[fqdn] = append(m.TXT[fqdn], content)
	return nil
}

func (m *MockService) DeleteTXTRecord(ctx context.Context, fqdn, content string, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteTXTRecord", fqdn, content, ttl)
	if m.Err != nil {
		return m.Err
	}
	if _, _, err := cpanel.ResolveZone(m.Zones, fqdn); err != nil {
		return err
	}
	var kept []string
	for _, v := range m.TXT[fqdn] {
		if v != content {
			kept = append(kept, v)
		}
	}
	m.TXT[fqdn] = kept
	return nil
}

func (m *MockService) RemoveLines(ctx context.Context, zone string, lines []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("RemoveLines", zone, fmt.Sprint(lines), 0)
	return m.Err
}

func (m *MockService) InstallCertificate(ctx context.Context, bundle cpanel.CertificateBundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InstallCertificate", bundle.Domain, "", 0)
	if m.Err != nil {
		return m.Err
	}
	m.Certificates = append(m.Certificates, bundle)
	return nil
}

// MockClientFactory is a test double for ClientFactory
type MockClientFactory struct {
	Service *MockService
	Err     error
	Files   []string
	Options []ClientOptions
}

func (m *MockClientFactory) Create(credentialsFile string, opts ClientOptions) (cpanel.Service, error) {
	m.Files = append(m.Files, credentialsFile)
	m.Options = append(m.Options, opts)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Service, nil
}

// MockWaiter records propagation waits
type MockWaiter struct {
	Seconds  int
	Resolver string
	Waits    []string
	Err      error
}

func (m *MockWaiter) Wait(ctx context.Context, fqdn, value string) error {
	m.Waits = append(m.Waits, fqdn+"="+value)
	return m.Err
}

// MockWaiterFactory is a test double for WaiterFactory
type MockWaiterFactory struct {
	Waiter *MockWaiter
}

func (m *MockWaiterFactory) Create(seconds int, resolver string) propagation.Waiter {
	if m.Waiter == nil {
		m.Waiter = &MockWaiter{}
	}
	m.Waiter.Seconds = seconds
	m.Waiter.Resolver = resolver
	return m.Waiter
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:  &MockConfigLoader{Cfg: config.New()},
			ClientFactory: &MockClientFactory{Service: NewMockService("example.com")},
			WaiterFactory: &MockWaiterFactory{},
			StdinReader:   input.NewStringReader("y\n"),
			Getenv:        func(string) string { return "" },
			Executable:    func() (string, error) { return "/usr/local/bin/cpaneldns", nil },
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithService sets the service every client factory call returns
func (b *MockDependenciesBuilder) WithService(svc *MockService) *MockDependenciesBuilder {
	b.deps.ClientFactory = &MockClientFactory{Service: svc}
	return b
}

// WithClientFactory sets a custom client factory
func (b *MockDependenciesBuilder) WithClientFactory(factory ClientFactory) *MockDependenciesBuilder {
	b.deps.ClientFactory = factory
	return b
}

// WithEnv sets the environment seen by hook commands
func (b *MockDependenciesBuilder) WithEnv(env map[string]string) *MockDependenciesBuilder {
	b.deps.Getenv = func(key string) string { return env[key] }
	return b
}

// WithStdinInput sets the answers read from stdin, one per prompt
func (b *MockDependenciesBuilder) WithStdinInput(answers ...string) *MockDependenciesBuilder {
	b.deps.StdinReader = input.NewStringReader(answers...)
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
	}
	OldDeps     *Dependencies
	Service     *MockService
	Factory     *MockClientFactory
	MockConfig  *MockConfigLoader
	Waiters     *MockWaiterFactory
	Environment map[string]string
}

// NewTestHelper installs mock dependencies managing zones and resets the
// global flags. Everything is restored when the test ends.
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
}, zones ...string) *TestHelper {
	t.Helper()

	svc := NewMockService(zones...)
	helper := &TestHelper{
		T:           t,
		OldDeps:     deps,
		Service:     svc,
		Factory:     &MockClientFactory{Service: svc},
		MockConfig:  &MockConfigLoader{Cfg: config.New()},
		Waiters:     &MockWaiterFactory{},
		Environment: map[string]string{},
	}

	deps = NewMockDeps().
		WithConfigLoader(helper.MockConfig).
		WithClientFactory(helper.Factory).
		WithEnv(helper.Environment).
		Build()
	deps.WaiterFactory = helper.Waiters

	saved := saveFlags()
	resetFlags()

	t.Cleanup(func() {
		deps = helper.OldDeps
		restoreFlags(saved)
	})

	return helper
}

// SetEnv sets a hook environment variable
func (h *TestHelper) SetEnv(key, value string) {
	h.Environment[key] = value
}

// SetStdinInput sets the answers read from stdin, one per prompt
func (h *TestHelper) SetStdinInput(answers ...string) {
	deps.StdinReader = input.NewStringReader(answers...)
}

// GetConfig returns the current mock config
func (h *TestHelper) GetConfig() *config.Config {
	return h.MockConfig.Cfg
}

// flagState snapshots the package-level flag variables
type flagState struct {
	credentialsPath, configPath string
	jsonOutput, verbose         bool
	timeout                     time.Duration
	propagationSeconds          int
	resolverAddr                string
	deployDomain, deployCert    string
	deployKey, deployChain      string
	deployAll                   bool
	txtTTL                      int
	certDomains                 []string
	certEmail, certName         string
	certStaging, certDryRun     bool
	certInstall, renewAllFlag   bool
	accountTTL                  int
	accountNote                 string
	initURL, initUsername       string
	initToken, initPassword     string
	initForce, initVerify       bool
}

func saveFlags() flagState {
	return flagState{
		credentialsPath, configPath, jsonOutput, verbose, timeout,
		propagationSeconds, resolverAddr,
		deployDomain, deployCert, deployKey, deployChain, deployAll,
		txtTTL,
		certDomains, certEmail, certName, certStaging, certDryRun, certInstall, renewAllFlag,
		accountTTL, accountNote,
		initURL, initUsername, initToken, initPassword, initForce, initVerify,
	}
}

func restoreFlags(s flagState) {
	credentialsPath, configPath, jsonOutput, verbose, timeout = s.credentialsPath, s.configPath, s.jsonOutput, s.verbose, s.timeout
	propagationSeconds, resolverAddr = s.propagationSeconds, s.resolverAddr
	deployDomain, deployCert, deployKey, deployChain, deployAll = s.deployDomain, s.deployCert, s.deployKey, s.deployChain, s.deployAll
	txtTTL = s.txtTTL
	certDomains, certEmail, certName = s.certDomains, s.certEmail, s.certName
	certStaging, certDryRun, certInstall, renewAllFlag = s.certStaging, s.certDryRun, s.certInstall, s.renewAllFlag
	accountTTL, accountNote = s.accountTTL, s.accountNote
	initURL, initUsername, initToken, initPassword = s.initURL, s.initUsername, s.initToken, s.initPassword
	initForce, initVerify = s.initForce, s.initVerify
}

func resetFlags() {
	restoreFlags(flagState{})
}
