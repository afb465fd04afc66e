// Package cpanel is a client for the DNS and SSL calls of the cPanel API 2
// JSON endpoint.
//
// All calls are GET requests to <url>/json-api/cpanel carrying the account
// user, API version 2, a module (ZoneEdit or SSL) and a function name. The
// answer is wrapped in a cpanelresult object.
//
// # Zones and names
//
// A validation name such as _acme-challenge.www.example.com is placed in the
// longest managed zone it belongs to. Zones without records are skipped.
//
//	zone, name, err := cpanel.ResolveZone([]string{"example.com", "www.example.com"},
//	    "_acme-challenge.www.example.com")
//	// zone = "www.example.com", name = "_acme-challenge"
//
// # Line numbers
//
// cPanel addresses records by line number and renumbers every later line
// when one is removed. Lines are looked up right before a removal and
// removed highest first, one request at a time.
//
// # Retries
//
// fetchzones and fetchzone_records are retried on transport failures with
// exponential backoff. add_zone_record, remove_zone_record and installssl are
// sent exactly once.
//
// # Usage
//
//	client, err := cpanel.NewClient(cpanel.Credentials{
//	    URL:      "https://cpanel.example.com:2083",
//	    Username: "user",
//	    Token:    "API-TOKEN",
//	})
//	if err != nil {
//	    return err
//	}
//	err = client.AddTXTRecord(ctx, "_acme-challenge.example.com", "token", cpanel.DefaultTTL)
package cpanel
