// Package propagation waits for a freshly added TXT record to become visible
// before certbot asks the CA to validate it.
//
// Without a resolver the wait is a fixed delay, which is what cPanel setups
// usually need. With a resolver the record is queried until it answers with
// the expected value or the deadline passes.
package propagation

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

// Defaults for polling.
const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

// Waiter blocks until value is published at fqdn.
type Waiter interface {
	Wait(ctx context.Context, fqdn, value string) error
}

// New returns a poller when resolver is set and a fixed delay otherwise.
func New(seconds int, resolver string) Waiter {
	if resolver != "" {
		return NewPoller(resolver)
	}
	return Delay{Duration: time.Duration(seconds) * time.Second}
}

// Delay waits a fixed duration.
type Delay struct {
	Duration time.Duration
}

// Wait sleeps for d.Duration or until ctx is done.
func (d Delay) Wait(ctx context.Context, fqdn, _ string) error {
	if d.Duration <= 0 {
		return nil
	}
	logger.Info("Waiting %s for %s to propagate", d.Duration, fqdn)

	t := time.NewTimer(d.Duration)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poller queries a resolver for the TXT record until it carries the value.
type Poller struct {
	Resolver string
	Interval time.Duration
	Timeout  time.Duration

	client *dns.Client
}

// NewPoller creates a Poller for resolver ("host" or "host:port").
func NewPoller(resolver string) *Poller {
	return &Poller{
		Resolver: withPort(resolver),
		Interval: DefaultInterval,
		Timeout:  DefaultTimeout,
		client:   &dns.Client{Timeout: 5 * time.Second},
	}
}

// Wait polls until the record is visible, Timeout passes or ctx is done.
func (p *Poller) Wait(ctx context.Context, fqdn, value string) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for attempt := 1; ; attempt++ {
		found, err := p.Lookup(ctx, fqdn, value)
		switch {
		case err != nil:
			logger.Debug("propagation check %d for %s failed: %v", attempt, fqdn, err)
		case found:
			logger.Info("TXT record for %s is visible at %s", fqdn, p.Resolver)
			return nil
		default:
			logger.Debug("propagation check %d: %s not yet visible at %s", attempt, fqdn, p.Resolver)
		}

		t := time.NewTimer(interval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return errors.WrapDomain(errors.ErrCodeTransport, fqdn,
				fmt.Sprintf("TXT record not visible at %s", p.Resolver), ctx.Err())
		}
	}
}

// Lookup performs one TXT query and reports whether value is among the answers.
func (p *Poller) Lookup(ctx context.Context, fqdn, value string) (bool, error) {
	client := p.client
	if client == nil {
		client = &dns.Client{}
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	m.RecursionDesired = true

	r, _, err := client.ExchangeContext(ctx, m, p.Resolver)
	if err != nil {
		return false, err
	}
	if r.Rcode != dns.RcodeSuccess && r.Rcode != dns.RcodeNameError {
		return false, fmt.Errorf("resolver answered %s", dns.RcodeToString[r.Rcode])
	}

	for _, rr := range r.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		if strings.Join(txt.Txt, "") == value {
			return true, nil
		}
	}
	return false, nil
}

func withPort(resolver string) string {
	if _, _, err := net.SplitHostPort(resolver); err == nil {
		return resolver
	}
	return net.JoinHostPort(strings.Trim(resolver, "[]"), "53")
}
