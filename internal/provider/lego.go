package provider

import (
	"context"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/dns01"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
)

// Lego defaults. cPanel zones usually reload within a minute.
const (
	DefaultPropagationTimeout = 5 * time.Minute
	DefaultPollingInterval    = 10 * time.Second
)

// Lego solves DNS-01 challenges for lego.
type Lego struct {
	client Client

	TTL                int
	PropagationTimeout time.Duration
	PollingInterval    time.Duration
}

var (
	_ challenge.Provider        = (*Lego)(nil)
	_ challenge.ProviderTimeout = (*Lego)(nil)
)

// NewLego wraps client as a lego challenge provider.
func NewLego(client Client) *Lego {
	return &Lego{
		client:             client,
		TTL:                cpanel.DefaultTTL,
		PropagationTimeout: DefaultPropagationTimeout,
		PollingInterval:    DefaultPollingInterval,
	}
}

// Present creates the TXT record for the challenge. The record goes where
// the challenge name's CNAME chain ends, as lego resolves it.
func (l *Lego) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(cpanel.StripWildcard(domain), keyAuth)
	return l.client.AddTXTRecord(context.Background(), strings.TrimSuffix(info.EffectiveFQDN, "."), info.Value, l.TTL)
}

// CleanUp removes the TXT record for the challenge.
func (l *Lego) CleanUp(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(cpanel.StripWildcard(domain), keyAuth)
	return l.client.DeleteTXTRecord(context.Background(), strings.TrimSuffix(info.EffectiveFQDN, "."), info.Value, l.TTL)
}

// Timeout returns how long lego waits for propagation and how often it checks.
func (l *Lego) Timeout() (timeout, interval time.Duration) {
	return l.PropagationTimeout, l.PollingInterval
}
