// Package provider exposes the cPanel client through the DNS provider
// interfaces of lego and libdns, so ACME clients built on either library can
// solve DNS-01 challenges in cPanel-hosted zones.
//
// Both adapters are stateless wrappers: zones and record lines are looked up
// on every call.
package provider

import (
	"context"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
)

// Client is the part of cpanel.Client the adapters use.
type Client interface {
	ZoneFor(ctx context.Context, fqdn string) (zone, name string, err error)
	ListRecords(ctx context.Context, zone string) ([]cpanel.ZoneRecord, error)
	AddTXTRecord(ctx context.Context, fqdn, content string, ttl int) error
	DeleteTXTRecord(ctx context.Context, fqdn, content string, ttl int) error
}

var _ Client = (*cpanel.Client)(nil)
