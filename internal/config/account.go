package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Account points the domains under Domain at their own cPanel credentials.
// Hosts with several cPanel accounts keep one entry per account.
type Account struct {
	Domain      string    `yaml:"domain"`
	Credentials string    `yaml:"credentials"`
	TTL         int       `yaml:"ttl,omitempty"`
	Note        string    `yaml:"note,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// AddAccount adds an account to the config
func (c *Config) AddAccount(a *Account) error {
	key := normalize(a.Domain)
	if key == "" {
		return fmt.Errorf("account domain cannot be empty")
	}
	if a.Credentials == "" {
		return fmt.Errorf("account %s: credentials is required", key)
	}
	if _, exists := c.Accounts[key]; exists {
		return fmt.Errorf("account %s already exists", key)
	}
	a.Domain = key
	c.Accounts[key] = a
	return nil
}

// GetAccount returns an account by domain
func (c *Config) GetAccount(domain string) (*Account, error) {
	a, exists := c.Accounts[normalize(domain)]
	if !exists {
		return nil, fmt.Errorf("account %s not found", domain)
	}
	return a, nil
}

// RemoveAccount removes an account from the config
func (c *Config) RemoveAccount(domain string) error {
	key := normalize(domain)
	if _, exists := c.Accounts[key]; !exists {
		return fmt.Errorf("account %s not found", domain)
	}
	delete(c.Accounts, key)
	return nil
}

// ListAccounts returns all accounts sorted by domain
func (c *Config) ListAccounts() []*Account {
	accounts := make([]*Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Domain < accounts[j].Domain
	})
	return accounts
}

// AccountFor returns the account whose domain is fqdn or its longest parent,
// or nil.
func (c *Config) AccountFor(fqdn string) *Account {
	name := normalize(fqdn)
	if name == "" {
		return nil
	}

	var best *Account
	bestLen := 0
	for key, a := range c.Accounts {
		if name != key && !strings.HasSuffix(name, "."+key) {
			continue
		}
		if len(key) > bestLen {
			best, bestLen = a, len(key)
		}
	}
	return best
}
