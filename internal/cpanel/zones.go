package cpanel

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

type fetchZonesData struct {
	Zones map[string]json.RawMessage `json:"zones"`
}

// ListZones returns the account's zones that hold at least one record, sorted.
func (c *Client) ListZones(ctx context.Context) ([]string, error) {
	res, err := c.read(ctx, moduleZoneEdit, "fetchzones", url.Values{})
	if err != nil {
		return nil, err
	}

	var data []fetchZonesData
	if err := res.decodeData("fetchzones", &data); err != nil {
		return nil, err
	}

	var zones []string
	for _, d := range data {
		for name, records := range d.Zones {
			if !truthy(records) {
				logger.Debug("skipping empty zone %s", name)
				continue
			}
			zones = append(zones, name)
		}
	}
	sort.Strings(zones)

	return zones, nil
}

// ZoneFor finds the managed zone holding fqdn and the name relative to it.
func (c *Client) ZoneFor(ctx context.Context, fqdn string) (zone, name string, err error) {
	zones, err := c.ListZones(ctx)
	if err != nil {
		return "", "", err
	}
	zone, name, err = ResolveZone(zones, fqdn)
	if err != nil {
		return "", "", err
	}
	logger.DebugFields("zone resolved", logger.Fields{"fqdn": fqdn, "zone": zone, "name": name})
	return zone, name, nil
}

// ResolveZone picks the longest zone that equals fqdn or is a dot-separated
// suffix of it, and returns fqdn relative to that zone. The relative name is
// empty when fqdn is the zone apex. Comparison ignores case and a trailing dot.
func ResolveZone(zones []string, fqdn string) (zone, name string, err error) {
	target := normalizeName(fqdn)
	if target == "" {
		return "", "", errors.Validation("record name cannot be empty")
	}

	for _, z := range zones {
		candidate := normalizeName(z)
		if candidate == "" {
			continue
		}
		if target != candidate && !strings.HasSuffix(target, "."+candidate) {
			continue
		}
		if len(candidate) > len(zone) {
			zone = candidate
		}
	}

	if zone == "" {
		return "", "", errors.ZoneNotFound(fqdn)
	}

	name = strings.TrimSuffix(strings.TrimSuffix(target, zone), ".")
	return zone, name, nil
}

// normalizeName lowercases a DNS name and drops surrounding whitespace and the root dot.
func normalizeName(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// truthy mirrors how cPanel marks a zone without records: an empty or zero value.
func truthy(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`, "[]", "{}":
		return false
	}
	return true
}
