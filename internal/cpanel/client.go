package cpanel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ksyq12/cpaneldns/internal/errors"
	"github.com/ksyq12/cpaneldns/internal/logger"
)

const (
	apiPath    = "/json-api/cpanel"
	apiVersion = "2"

	moduleZoneEdit = "ZoneEdit"
	moduleSSL      = "SSL"

	// DefaultTTL is the TTL used for TXT records when the caller gives none.
	DefaultTTL = 60
	// DefaultTimeout bounds every HTTP request to the cPanel API.
	DefaultTimeout = 30 * time.Second
	// DefaultReadRetries is the retry budget for read-only calls.
	DefaultReadRetries = 3

	maxLoggedBody = 4096
)

// AuthScheme is the Authorization scheme a Client was built with.
type AuthScheme string

const (
	AuthToken AuthScheme = "token"
	AuthBasic AuthScheme = "basic"
)

// Credentials identify one cPanel account on one server.
type Credentials struct {
	URL      string
	Username string
	Token    string
	Password string
}

// Validate checks the invariants NewClient relies on. It never touches the network.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.InvalidCredentials("", "url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.InvalidCredentials("", fmt.Sprintf("url %q must be absolute, e.g. https://cpanel.example.com:2083", c.URL))
	}
	if strings.TrimSpace(c.Username) == "" {
		return errors.InvalidCredentials("", "username and token (preferred) or password are required")
	}
	if c.Token == "" && c.Password == "" {
		return errors.InvalidCredentials("", "password or token (preferred) are required")
	}
	return nil
}

// Scheme reports which Authorization scheme these credentials select.
// A token always wins over a password.
func (c Credentials) Scheme() AuthScheme {
	if c.Token != "" {
		return AuthToken
	}
	return AuthBasic
}

// Service is the set of operations ACME integrations need. *Client
// implements it; tests substitute their own.
type Service interface {
	ListZones(ctx context.Context) ([]string, error)
	ZoneFor(ctx context.Context, fqdn string) (zone, name string, err error)
	ListRecords(ctx context.Context, zone string) ([]ZoneRecord, error)
	FindRecordLines(ctx context.Context, zone, name, content string, ttl int) ([]int, error)
	AddRecord(ctx context.Context, zone, name, content string, ttl int) error
	AddTXTRecord(ctx context.Context, fqdn, content string, ttl int) error
	DeleteTXTRecord(ctx context.Context, fqdn, content string, ttl int) error
	RemoveLines(ctx context.Context, zone string, lines []int) error
	InstallCertificate(ctx context.Context, bundle CertificateBundle) error
}

var _ Service = (*Client)(nil)

// Client talks to the cPanel API 2 JSON endpoint of a single account.
// A Client holds no mutable state after construction and may be shared.
type Client struct {
	endpoint      string
	username      string
	scheme        AuthScheme
	authorization string

	httpClient  *http.Client
	timeout     time.Duration
	readRetries uint64
	newBackOff  func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReadRetries sets how many times a read-only call is retried after a
// transport failure. Mutations are never retried.
func WithReadRetries(n uint64) Option {
	return func(c *Client) {
		c.readRetries = n
	}
}

// WithBackOff sets the retry schedule factory for read-only calls.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) {
		if f != nil {
			c.newBackOff = f
		}
	}
}

// NewClient validates creds and builds a Client. The auth scheme is fixed here.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:    strings.TrimRight(creds.URL, "/") + apiPath,
		username:    creds.Username,
		scheme:      creds.Scheme(),
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		readRetries: DefaultReadRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	switch c.scheme {
	case AuthToken:
		c.authorization = fmt.Sprintf("cpanel %s:%s", creds.Username, creds.Token)
	default:
		raw := creds.Username + ":" + creds.Password
		c.authorization = "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Scheme returns the auth scheme chosen at construction.
func (c *Client) Scheme() AuthScheme {
	return c.scheme
}

// Endpoint returns the JSON API URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// apiResult is the cpanelresult object of an API 2 response.
type apiResult struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

type envelope struct {
	CPanelResult *apiResult `json:"cpanelresult"`
}

// hasData reports whether the result carries a non-empty data array.
func (r *apiResult) hasData() bool {
	d := strings.TrimSpace(string(r.Data))
	return d != "" && d != "null" && d != "[]"
}

// decodeData unmarshals the data array into v.
func (r *apiResult) decodeData(fn string, v interface{}) error {
	if !r.hasData() {
		if r.Error != "" {
			return errors.Wrap(errors.ErrCodeTransport, fn, fmt.Errorf("cpanel: %s", r.Error))
		}
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		// Failures come back with data as an object rather than an array.
		if msg := r.message(); msg != "" {
			return errors.Wrap(errors.ErrCodeTransport, fn, fmt.Errorf("cpanel: %s", msg))
		}
		return errors.Wrap(errors.ErrCodeTransport, fn, fmt.Errorf("malformed data: %w", err))
	}
	return nil
}

// message returns the remote error text: the top-level error, else the
// reason of an object-shaped data field.
func (r *apiResult) message() string {
	if r.Error != "" {
		return r.Error
	}
	var obj struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(r.Data, &obj) == nil {
		return obj.Reason
	}
	return ""
}

// transportError marks a failure as worth retrying on read-only calls.
type transportError struct {
	err       error
	retryable bool
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// read performs a read-only call, retrying transport failures.
func (c *Client) read(ctx context.Context, module, fn string, params url.Values) (*apiResult, error) {
	var res *apiResult
	attempt := 0

	op := func() error {
		attempt++
		r, err := c.do(ctx, module, fn, params)
		if err != nil {
			var te *transportError
			if errors.As(err, &te) && te.retryable {
				logger.Debug("%s attempt %d failed: %v", fn, attempt, err)
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.readRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, fn, err)
	}
	return res, nil
}

// write performs a state-changing call exactly once.
func (c *Client) write(ctx context.Context, module, fn string, params url.Values) (*apiResult, error) {
	res, err := c.do(ctx, module, fn, params)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, fn, err)
	}
	return res, nil
}

// do sends one GET request and decodes the cpanelresult envelope.
func (c *Client) do(ctx context.Context, module, fn string, params url.Values) (*apiResult, error) {
	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	query.Set("cpanel_jsonapi_user", c.username)
	query.Set("cpanel_jsonapi_apiversion", apiVersion)
	query.Set("cpanel_jsonapi_module", module)
	query.Set("cpanel_jsonapi_func", fn)

	logger.Debug("req %s: url='%s', data='%s'", fn, c.endpoint, logger.Redact(query))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("error performing request: %w", err), retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("error reading response body: %w", err), retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, &transportError{
			err:       fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(body)),
			retryable: retryable,
		}
	}

	logger.Debug("rsp %s: data='%s'", fn, truncate(body))

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if env.CPanelResult == nil {
		return nil, fmt.Errorf("error parsing response: missing cpanelresult")
	}

	return env.CPanelResult, nil
}

func truncate(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody]) + "...(truncated)"
}

// flexInt decodes integers cPanel sends as numbers, numeric strings or booleans.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", `""`:
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n := json.Number(s)
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("cpanel: cannot decode %s as integer", b)
		}
		i = int64(fl)
	}
	*f = flexInt(i)
	return nil
}
