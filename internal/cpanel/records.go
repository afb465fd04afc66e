package cpanel

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

// RecordTypeTXT is the only record type this client creates or removes.
const RecordTypeTXT = "TXT"

// RecordQuery identifies a TXT record by content rather than by line.
type RecordQuery struct {
	Name    string
	Content string
	TTL     int
}

// ZoneRecord is one entry of a zone as fetchzone_records reports it.
// Line is only valid until the next mutation of the zone.
type ZoneRecord struct {
	Line    int
	Name    string
	Type    string
	TTL     int
	TXTData string
	Address string
	CName   string
	Record  string
}

type zoneRecordData struct {
	Line    flexInt `json:"line"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	TTL     flexInt `json:"ttl"`
	TXTData *string `json:"txtdata"`
	Address string  `json:"address"`
	CName   string  `json:"cname"`
	Record  string  `json:"record"`
}

type mutationData struct {
	Result struct {
		Status    flexInt `json:"status"`
		StatusMsg string  `json:"statusmsg"`
	} `json:"result"`
}

// ListRecords returns every record of zone.
func (c *Client) ListRecords(ctx context.Context, zone string) ([]ZoneRecord, error) {
	params := url.Values{}
	params.Set("domain", zone)

	rows, err := c.fetchRecords(ctx, params)
	if err != nil {
		return nil, err
	}

	records := make([]ZoneRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// FindRecordLines returns the line of every TXT record in zone whose name
// and content match. name may be relative to zone or absolute. Duplicates are
// all returned; no match is an empty result, not an error.
func (c *Client) FindRecordLines(ctx context.Context, zone, name, content string, ttl int) ([]int, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	absolute := absoluteName(name, zone)

	params := url.Values{}
	params.Set("domain", zone)
	params.Set("name", absolute)
	params.Set("type", RecordTypeTXT)
	params.Set("txtdata", content)
	params.Set("ttl", strconv.Itoa(ttl))

	rows, err := c.fetchRecords(ctx, params)
	if err != nil {
		return nil, err
	}

	lines := []int{}
	for _, r := range rows {
		if !r.matches(absolute, content) {
			logger.Debug("ignoring line %d of %s: does not match filter", r.Line, zone)
			continue
		}
		lines = append(lines, int(r.Line))
	}
	return lines, nil
}

// FindLines is FindRecordLines for a RecordQuery.
func (c *Client) FindLines(ctx context.Context, zone string, q RecordQuery) ([]int, error) {
	return c.FindRecordLines(ctx, zone, q.Name, q.Content, q.TTL)
}

func (c *Client) fetchRecords(ctx context.Context, params url.Values) ([]zoneRecordData, error) {
	res, err := c.read(ctx, moduleZoneEdit, "fetchzone_records", params)
	if err != nil {
		return nil, err
	}

	var rows []zoneRecordData
	if err := res.decodeData("fetchzone_records", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddRecord creates a TXT record named name (relative to zone) in zone.
func (c *Client) AddRecord(ctx context.Context, zone, name, content string, ttl int) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if name == "" {
		name = normalizeName(zone) + "."
	}

	params := url.Values{}
	params.Set("domain", zone)
	params.Set("name", name)
	params.Set("type", RecordTypeTXT)
	params.Set("txtdata", content)
	params.Set("ttl", strconv.Itoa(ttl))

	fqdn := strings.TrimSuffix(absoluteName(name, zone), ".")
	res, err := c.write(ctx, moduleZoneEdit, "add_zone_record", params)
	if err != nil {
		return err
	}
	if err := checkMutation(res, fqdn, "add_zone_record", "Error adding TXT record"); err != nil {
		return err
	}

	logger.Info("Successfully added TXT record for %s", fqdn)
	return nil
}

// AddTXTRecord resolves the zone of fqdn and creates the TXT record there.
func (c *Client) AddTXTRecord(ctx context.Context, fqdn, content string, ttl int) error {
	zone, name, err := c.ZoneFor(ctx, fqdn)
	if err != nil {
		return err
	}
	return c.AddRecord(ctx, zone, name, content, ttl)
}

// DeleteTXTRecord removes every TXT record at fqdn with the given content.
// Zone and lines are looked up fresh on every call. Removing an absent
// record succeeds without any remove call.
func (c *Client) DeleteTXTRecord(ctx context.Context, fqdn, content string, ttl int) error {
	zone, name, err := c.ZoneFor(ctx, fqdn)
	if err != nil {
		return err
	}

	lines, err := c.FindRecordLines(ctx, zone, name, content, ttl)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		logger.Info("No TXT record for %s to remove", fqdn)
		return nil
	}

	return c.RemoveLines(ctx, zone, lines)
}

// RemoveLines deletes the given lines of zone, highest first, one request at a
// time. cPanel renumbers every later line after a removal, so any other order
// would hit the wrong records. The first failure stops the sequence; lines
// already removed stay removed.
func (c *Client) RemoveLines(ctx context.Context, zone string, lines []int) error {
	ordered := descendingUnique(lines)

	for _, line := range ordered {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeTransport, "remove_zone_record", err)
		}

		params := url.Values{}
		params.Set("domain", zone)
		params.Set("line", strconv.Itoa(line))

		res, err := c.write(ctx, moduleZoneEdit, "remove_zone_record", params)
		if err != nil {
			return err
		}
		where := zone + " line " + strconv.Itoa(line)
		if err := checkMutation(res, where, "remove_zone_record", "Error removing TXT record"); err != nil {
			return err
		}
		logger.Info("Successfully removed TXT record at %s", where)
	}
	return nil
}

// descendingUnique returns a sorted copy of lines, highest first, without
// repeats. Removing the same line twice would remove a different record.
func descendingUnique(lines []int) []int {
	ordered := append([]int(nil), lines...)
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	out := ordered[:0]
	for i, line := range ordered {
		if i > 0 && line == ordered[i-1] {
			continue
		}
		out = append(out, line)
	}
	return out
}

func checkMutation(res *apiResult, name, fn, action string) error {
	var data []mutationData
	if err := res.decodeData(fn, &data); err != nil {
		if msg := res.message(); msg != "" {
			return errors.RecordMutation(name, action, msg)
		}
		return err
	}
	if len(data) == 0 {
		msg := res.Error
		if msg == "" {
			msg = "empty response"
		}
		return errors.RecordMutation(name, action, msg)
	}
	if data[0].Result.Status != 1 {
		return errors.RecordMutation(name, action, data[0].Result.StatusMsg)
	}
	return nil
}

// absoluteName qualifies name with zone unless it already ends in the zone,
// and always returns it with the trailing root dot cPanel stores.
func absoluteName(name, zone string) string {
	n := normalizeName(name)
	z := normalizeName(zone)

	switch {
	case n == "" || n == "@":
		n = z
	case n == z || strings.HasSuffix(n, "."+z):
	default:
		n = n + "." + z
	}
	return n + "."
}

func (r zoneRecordData) matches(absolute, content string) bool {
	if r.Line <= 0 {
		return false
	}
	if r.Type != "" && !strings.EqualFold(r.Type, RecordTypeTXT) {
		return false
	}
	if r.Name != "" && normalizeName(r.Name) != normalizeName(absolute) {
		return false
	}
	if r.TXTData != nil && *r.TXTData != content {
		return false
	}
	return true
}

func (r zoneRecordData) toRecord() ZoneRecord {
	rec := ZoneRecord{
		Line:    int(r.Line),
		Name:    r.Name,
		Type:    r.Type,
		TTL:     int(r.TTL),
		Address: r.Address,
		CName:   r.CName,
		Record:  r.Record,
	}
	if r.TXTData != nil {
		rec.TXTData = *r.TXTData
	}
	return rec
}
