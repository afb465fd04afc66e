package cpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ksyq12/cpaneldns/internal/errors"
)

type fakeRecord struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	TXTData string `json:"txtdata,omitempty"`
	Address string `json:"address,omitempty"`
	TTL     int    `json:"ttl"`
}

// fakeZone keeps records the way cPanel does: addressed by 1-based line,
// with every later line shifting down on removal.
type fakeZone struct {
	name string

	mu      sync.Mutex
	records []fakeRecord
}

func (z *fakeZone) install(f *fakeCPanel) {
	f.on("fetchzones", fmt.Sprintf(`{"cpanelresult":{"data":[{"zones":{%q:["; cPanel zone"]}}]}}`, z.name))
	f.handlers["fetchzone_records"] = z.fetch
	f.handlers["add_zone_record"] = z.add
	f.handlers["remove_zone_record"] = z.remove
}

func (z *fakeZone) fetch(q url.Values) (int, string) {
	z.mu.Lock()
	defer z.mu.Unlock()

	type row struct {
		Line interface{} `json:"line"`
		fakeRecord
	}
	rows := []row{}
	for i, r := range z.records {
		if n := q.Get("name"); n != "" && !strings.EqualFold(n, r.Name) {
			continue
		}
		if ty := q.Get("type"); ty != "" && ty != r.Type {
			continue
		}
		if txt, ok := q["txtdata"]; ok && txt[0] != r.TXTData {
			continue
		}
		// cPanel reports line numbers as strings on some versions.
		var line interface{} = i + 1
		if i%2 == 1 {
			line = strconv.Itoa(i + 1)
		}
		rows = append(rows, row{Line: line, fakeRecord: r})
	}
	return http.StatusOK, envelopeJSON(rows)
}

func (z *fakeZone) add(q url.Values) (int, string) {
	z.mu.Lock()
	defer z.mu.Unlock()

	ttl, _ := strconv.Atoi(q.Get("ttl"))
	z.records = append(z.records, fakeRecord{
		Name:    absoluteName(q.Get("name"), q.Get("domain")),
		Type:    q.Get("type"),
		TXTData: q.Get("txtdata"),
		TTL:     ttl,
	})
	return http.StatusOK, statusJSON(1, "")
}

func (z *fakeZone) remove(q url.Values) (int, string) {
	z.mu.Lock()
	defer z.mu.Unlock()

	line, err := strconv.Atoi(q.Get("line"))
	if err != nil || line < 1 || line > len(z.records) {
		return http.StatusOK, statusJSON(0, "Invalid line")
	}
	z.records = append(z.records[:line-1], z.records[line:]...)
	return http.StatusOK, statusJSON(1, "")
}

func (z *fakeZone) snapshot() []fakeRecord {
	z.mu.Lock()
	defer z.mu.Unlock()
	return append([]fakeRecord(nil), z.records...)
}

func envelopeJSON(data interface{}) string {
	b, err := json.Marshal(map[string]interface{}{
		"cpanelresult": map[string]interface{}{"data": data},
	})
	if err != nil {
		panic(err)
	}
	return string(b)
}

func statusJSON(status int, msg string) string {
	return envelopeJSON([]interface{}{
		map[string]interface{}{"result": map[string]interface{}{"status": status, "statusmsg": msg}},
	})
}

func challenge(value string) fakeRecord {
	return fakeRecord{Name: "_acme-challenge.example.com.", Type: "TXT", TXTData: value, TTL: 60}
}

func filler(i int) fakeRecord {
	return fakeRecord{Name: fmt.Sprintf("host%d.example.com.", i), Type: "A", Address: "192.0.2.1", TTL: 14400}
}

func TestFindRecordLines(t *testing.T) {
	t.Run("duplicates are all returned", func(t *testing.T) {
		zone := &fakeZone{name: "example.com"}
		for i := 1; i <= 10; i++ {
			zone.records = append(zone.records, filler(i))
		}
		zone.records[4] = challenge("token")
		zone.records[8] = challenge("token")

		f := newFakeCPanel(t)
		zone.install(f)

		lines, err := f.client().FindRecordLines(context.Background(), "example.com", "_acme-challenge", "token", 0)
		if err != nil {
			t.Fatalf("FindRecordLines() error = %v", err)
		}
		if !reflect.DeepEqual(lines, []int{5, 9}) {
			t.Errorf("FindRecordLines() = %v, want [5 9]", lines)
		}

		q := f.calls("fetchzone_records")[0]
		want := map[string]string{
			"domain":  "example.com",
			"name":    "_acme-challenge.example.com.",
			"type":    "TXT",
			"txtdata": "token",
			"ttl":     "60",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("fetchzone_records %s = %q, want %q", k, q.Get(k), v)
			}
		}
	})

	t.Run("no match is empty", func(t *testing.T) {
		zone := &fakeZone{name: "example.com", records: []fakeRecord{challenge("other")}}
		f := newFakeCPanel(t)
		zone.install(f)

		lines, err := f.client().FindRecordLines(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if err != nil {
			t.Fatalf("FindRecordLines() error = %v", err)
		}
		if lines == nil || len(lines) != 0 {
			t.Errorf("FindRecordLines() = %#v, want empty slice", lines)
		}
	})

	t.Run("absolute name is kept", func(t *testing.T) {
		zone := &fakeZone{name: "example.com", records: []fakeRecord{challenge("token")}}
		f := newFakeCPanel(t)
		zone.install(f)

		lines, err := f.client().FindRecordLines(context.Background(), "example.com", "_acme-challenge.example.com.", "token", 60)
		if err != nil {
			t.Fatalf("FindRecordLines() error = %v", err)
		}
		if !reflect.DeepEqual(lines, []int{1}) {
			t.Errorf("FindRecordLines() = %v, want [1]", lines)
		}
	})

	t.Run("server ignoring filters", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("fetchzone_records", envelopeJSON([]map[string]interface{}{
			{"line": 3, "name": "_acme-challenge.example.com.", "type": "TXT", "txtdata": "token"},
			{"line": 4, "name": "_acme-challenge.example.com.", "type": "TXT", "txtdata": "stale"},
			{"line": 5, "name": "www.example.com.", "type": "TXT", "txtdata": "token"},
			{"line": 6, "name": "_acme-challenge.example.com.", "type": "CNAME"},
			{"line": 0, "name": "_acme-challenge.example.com.", "type": "TXT", "txtdata": "token"},
		}))

		lines, err := f.client().FindRecordLines(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if err != nil {
			t.Fatalf("FindRecordLines() error = %v", err)
		}
		if !reflect.DeepEqual(lines, []int{3}) {
			t.Errorf("FindRecordLines() = %v, want [3]", lines)
		}
	})
}

func TestAbsoluteName(t *testing.T) {
	tests := []struct {
		name, zone, want string
	}{
		{"_acme-challenge", "example.com", "_acme-challenge.example.com."},
		{"_acme-challenge.www", "example.com", "_acme-challenge.www.example.com."},
		{"_acme-challenge.example.com", "example.com", "_acme-challenge.example.com."},
		{"_acme-challenge.example.com.", "example.com.", "_acme-challenge.example.com."},
		{"", "example.com", "example.com."},
		{"@", "example.com", "example.com."},
		{"example.com", "example.com", "example.com."},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.zone, func(t *testing.T) {
			if got := absoluteName(tt.name, tt.zone); got != tt.want {
				t.Errorf("absoluteName(%q, %q) = %q, want %q", tt.name, tt.zone, got, tt.want)
			}
		})
	}
}

func TestAddRecord(t *testing.T) {
	t.Run("success with default ttl", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("add_zone_record", statusJSON(1, "Added"))

		err := f.client().AddRecord(context.Background(), "example.com", "_acme-challenge", "token", 0)
		if err != nil {
			t.Fatalf("AddRecord() error = %v", err)
		}

		q := f.calls("add_zone_record")[0]
		want := map[string]string{
			"cpanel_jsonapi_module": "ZoneEdit",
			"domain":                "example.com",
			"name":                  "_acme-challenge",
			"type":                  "TXT",
			"txtdata":               "token",
			"ttl":                   "60",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("add_zone_record %s = %q, want %q", k, q.Get(k), v)
			}
		}
	})

	t.Run("apex uses the zone name", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("add_zone_record", statusJSON(1, ""))

		if err := f.client().AddRecord(context.Background(), "example.com", "", "token", 120); err != nil {
			t.Fatalf("AddRecord() error = %v", err)
		}
		q := f.calls("add_zone_record")[0]
		if q.Get("name") != "example.com." || q.Get("ttl") != "120" {
			t.Errorf("add_zone_record name=%q ttl=%q", q.Get("name"), q.Get("ttl"))
		}
	})

	t.Run("failure keeps statusmsg", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("add_zone_record", statusJSON(0, "Zone is locked by another process"))

		err := f.client().AddRecord(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if !errors.Is(err, errors.ErrRecordMutation) {
			t.Fatalf("AddRecord() error = %v, want record mutation", err)
		}
		if !strings.Contains(err.Error(), "Zone is locked by another process") {
			t.Errorf("AddRecord() error = %q, want remote message", err.Error())
		}
	})

	t.Run("remote error without data", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("add_zone_record", `{"cpanelresult":{"error":"Permission denied"}}`)

		err := f.client().AddRecord(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if !errors.Is(err, errors.ErrRecordMutation) {
			t.Fatalf("AddRecord() error = %v, want record mutation", err)
		}
		if !strings.Contains(err.Error(), "Permission denied") {
			t.Errorf("AddRecord() error = %q, want remote message", err.Error())
		}
	})

	t.Run("reason in object data", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("add_zone_record", `{"cpanelresult":{"data":{"result":"0","reason":"Feature disabled"}}}`)

		err := f.client().AddRecord(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if !errors.Is(err, errors.ErrRecordMutation) {
			t.Fatalf("AddRecord() error = %v, want record mutation", err)
		}
		if !strings.Contains(err.Error(), "Feature disabled") {
			t.Errorf("AddRecord() error = %q, want remote message", err.Error())
		}
	})

	t.Run("never retried", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.handlers["add_zone_record"] = func(url.Values) (int, string) {
			return http.StatusInternalServerError, "boom"
		}

		err := f.client().AddRecord(context.Background(), "example.com", "_acme-challenge", "token", 60)
		if !errors.Is(err, errors.ErrTransport) {
			t.Fatalf("AddRecord() error = %v, want transport", err)
		}
		if n := len(f.calls("add_zone_record")); n != 1 {
			t.Errorf("add_zone_record calls = %d, want 1", n)
		}
	})
}

func TestAddTXTRecordRoundTrip(t *testing.T) {
	zone := &fakeZone{name: "example.com", records: []fakeRecord{filler(1)}}
	f := newFakeCPanel(t)
	zone.install(f)
	c := f.client()
	ctx := context.Background()

	if err := c.AddTXTRecord(ctx, "_acme-challenge.example.com", "token", 60); err != nil {
		t.Fatalf("AddTXTRecord() error = %v", err)
	}

	lines, err := c.FindRecordLines(ctx, "example.com", "_acme-challenge", "token", 60)
	if err != nil {
		t.Fatalf("FindRecordLines() error = %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("FindRecordLines() after add returned no lines")
	}

	if err := c.DeleteTXTRecord(ctx, "_acme-challenge.example.com", "token", 60); err != nil {
		t.Fatalf("DeleteTXTRecord() error = %v", err)
	}
	if got := zone.snapshot(); !reflect.DeepEqual(got, []fakeRecord{filler(1)}) {
		t.Errorf("zone after delete = %+v", got)
	}
}

func TestDeleteTXTRecord(t *testing.T) {
	t.Run("removes highest line first", func(t *testing.T) {
		zone := &fakeZone{name: "example.com"}
		for i := 1; i <= 10; i++ {
			zone.records = append(zone.records, filler(i))
		}
		zone.records[4] = challenge("token")
		zone.records[8] = challenge("token")

		f := newFakeCPanel(t)
		zone.install(f)

		if err := f.client().DeleteTXTRecord(context.Background(), "_acme-challenge.example.com", "token", 60); err != nil {
			t.Fatalf("DeleteTXTRecord() error = %v", err)
		}

		var order []string
		for _, q := range f.calls("remove_zone_record") {
			order = append(order, q.Get("line"))
		}
		if !reflect.DeepEqual(order, []string{"9", "5"}) {
			t.Errorf("remove order = %v, want [9 5]", order)
		}

		var want []fakeRecord
		for i := 1; i <= 10; i++ {
			if i != 5 && i != 9 {
				want = append(want, filler(i))
			}
		}
		if got := zone.snapshot(); !reflect.DeepEqual(got, want) {
			t.Errorf("zone after delete = %+v, want %+v", got, want)
		}
	})

	t.Run("absent record issues no removal", func(t *testing.T) {
		zone := &fakeZone{name: "example.com", records: []fakeRecord{filler(1), challenge("other")}}
		f := newFakeCPanel(t)
		zone.install(f)

		if err := f.client().DeleteTXTRecord(context.Background(), "_acme-challenge.example.com", "token", 60); err != nil {
			t.Fatalf("DeleteTXTRecord() error = %v", err)
		}
		if n := len(f.calls("remove_zone_record")); n != 0 {
			t.Errorf("remove_zone_record calls = %d, want 0", n)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		zone := &fakeZone{name: "example.com"}
		f := newFakeCPanel(t)
		zone.install(f)

		err := f.client().DeleteTXTRecord(context.Background(), "_acme-challenge.example.net", "token", 60)
		if !errors.Is(err, errors.ErrZoneNotFound) {
			t.Errorf("DeleteTXTRecord() error = %v, want zone not found", err)
		}
		if n := len(f.calls("fetchzone_records")); n != 0 {
			t.Errorf("fetchzone_records calls = %d, want 0", n)
		}
	})
}

func TestRemoveLines(t *testing.T) {
	t.Run("sorted, deduplicated, input untouched", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("remove_zone_record", statusJSON(1, ""))

		input := []int{5, 12, 9, 12}
		if err := f.client().RemoveLines(context.Background(), "example.com", input); err != nil {
			t.Fatalf("RemoveLines() error = %v", err)
		}

		var order []string
		for _, q := range f.calls("remove_zone_record") {
			if q.Get("domain") != "example.com" {
				t.Errorf("domain = %q", q.Get("domain"))
			}
			order = append(order, q.Get("line"))
		}
		if !reflect.DeepEqual(order, []string{"12", "9", "5"}) {
			t.Errorf("remove order = %v, want [12 9 5]", order)
		}
		if !reflect.DeepEqual(input, []int{5, 12, 9, 12}) {
			t.Errorf("input modified: %v", input)
		}
	})

	t.Run("first failure stops the sequence", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.handlers["remove_zone_record"] = func(q url.Values) (int, string) {
			if q.Get("line") == "9" {
				return http.StatusOK, statusJSON(0, "Could not remove line 9")
			}
			return http.StatusOK, statusJSON(1, "")
		}

		err := f.client().RemoveLines(context.Background(), "example.com", []int{5, 9, 12})
		if !errors.Is(err, errors.ErrRecordMutation) {
			t.Fatalf("RemoveLines() error = %v, want record mutation", err)
		}
		if !strings.Contains(err.Error(), "Could not remove line 9") {
			t.Errorf("RemoveLines() error = %q, want remote message", err.Error())
		}

		var order []string
		for _, q := range f.calls("remove_zone_record") {
			order = append(order, q.Get("line"))
		}
		if !reflect.DeepEqual(order, []string{"12", "9"}) {
			t.Errorf("remove calls = %v, want [12 9]", order)
		}
	})

	t.Run("server error is not retried", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.handlers["remove_zone_record"] = func(url.Values) (int, string) {
			return http.StatusBadGateway, "bad gateway"
		}

		err := f.client().RemoveLines(context.Background(), "example.com", []int{3})
		if !errors.Is(err, errors.ErrTransport) {
			t.Fatalf("RemoveLines() error = %v, want transport", err)
		}
		if n := len(f.calls("remove_zone_record")); n != 1 {
			t.Errorf("remove_zone_record calls = %d, want 1", n)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFakeCPanel(t)
		f.on("remove_zone_record", statusJSON(1, ""))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := f.client().RemoveLines(ctx, "example.com", []int{1})
		if !errors.Is(err, errors.ErrTransport) {
			t.Fatalf("RemoveLines() error = %v, want transport", err)
		}
		if n := len(f.calls("remove_zone_record")); n != 0 {
			t.Errorf("remove_zone_record calls = %d, want 0", n)
		}
	})
}

func TestListRecords(t *testing.T) {
	zone := &fakeZone{name: "example.com", records: []fakeRecord{filler(1), challenge("token")}}
	f := newFakeCPanel(t)
	zone.install(f)

	records, err := f.client().ListRecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListRecords() returned %d records, want 2", len(records))
	}
	if records[0].Line != 1 || records[0].Type != "A" || records[0].Address != "192.0.2.1" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Line != 2 || records[1].TXTData != "token" || records[1].TTL != 60 {
		t.Errorf("records[1] = %+v", records[1])
	}

	q := f.calls("fetchzone_records")[0]
	if _, ok := q["name"]; ok {
		t.Error("ListRecords() should not filter by name")
	}
}
