package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/libdns/libdns"

	"github.com/ksyq12/cpaneldns/internal/cpanel"
	"github.com/ksyq12/cpaneldns/internal/errors"
)

// LibDNS implements the libdns record interfaces over a cPanel account.
// Only TXT records can be appended or deleted.
type LibDNS struct {
	client Client
}

var (
	_ libdns.RecordGetter   = (*LibDNS)(nil)
	_ libdns.RecordAppender = (*LibDNS)(nil)
	_ libdns.RecordDeleter  = (*LibDNS)(nil)
)

// NewLibDNS wraps client as a libdns provider.
func NewLibDNS(client Client) *LibDNS {
	return &LibDNS{client: client}
}

// GetRecords lists all records in zone. IDs are cPanel line numbers and are
// only valid until the zone next changes.
func (p *LibDNS) GetRecords(ctx context.Context, zone string) ([]libdns.Record, error) {
	name := strings.TrimSuffix(zone, ".")
	rows, err := p.client.ListRecords(ctx, name)
	if err != nil {
		return nil, err
	}

	records := make([]libdns.Record, 0, len(rows))
	for _, r := range rows {
		if r.Type == "" || r.Line <= 0 {
			continue
		}
		records = append(records, libdns.Record{
			ID:    strconv.Itoa(r.Line),
			Type:  r.Type,
			Name:  libdns.RelativeName(r.Name, name+"."),
			Value: recordValue(r),
			TTL:   time.Duration(r.TTL) * time.Second,
		})
	}
	return records, nil
}

// AppendRecords adds TXT records. The zone only qualifies record names; the
// managed zone is found by longest match.
func (p *LibDNS) AppendRecords(ctx context.Context, zone string, records []libdns.Record) ([]libdns.Record, error) {
	var added []libdns.Record
	for _, rec := range records {
		if err := requireTXT(rec); err != nil {
			return added, err
		}
		if err := p.client.AddTXTRecord(ctx, fqdn(rec.Name, zone), rec.Value, ttlSeconds(rec.TTL)); err != nil {
			return added, err
		}
		added = append(added, rec)
	}
	return added, nil
}

// DeleteRecords removes TXT records matching name and value. Records that
// do not exist are not an error.
func (p *LibDNS) DeleteRecords(ctx context.Context, zone string, records []libdns.Record) ([]libdns.Record, error) {
	var deleted []libdns.Record
	for _, rec := range records {
		if err := requireTXT(rec); err != nil {
			return deleted, err
		}
		if err := p.client.DeleteTXTRecord(ctx, fqdn(rec.Name, zone), rec.Value, ttlSeconds(rec.TTL)); err != nil {
			return deleted, err
		}
		deleted = append(deleted, rec)
	}
	return deleted, nil
}

func requireTXT(rec libdns.Record) error {
	if !strings.EqualFold(rec.Type, cpanel.RecordTypeTXT) {
		return errors.Validation(fmt.Sprintf("unsupported record type %q for %s: only TXT is supported", rec.Type, rec.Name))
	}
	return nil
}

func fqdn(name, zone string) string {
	return strings.TrimSuffix(libdns.AbsoluteName(name, zone), ".")
}

func ttlSeconds(d time.Duration) int {
	if d <= 0 {
		return cpanel.DefaultTTL
	}
	return int(d / time.Second)
}

func recordValue(r cpanel.ZoneRecord) string {
	switch {
	case r.TXTData != "":
		return r.TXTData
	case r.Address != "":
		return r.Address
	case r.CName != "":
		return r.CName
	default:
		return r.Record
	}
}
