// Package dbl is a client for the Digital Bible Library API. Every request is signed
// with the v1 authorization scheme from package crypto.
package dbl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"dblsync/internal/catalog"
	"dblsync/internal/platform/crypto"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.thedigitalbiblelibrary.org"

// ErrConnection marks transport failures: dial errors, resets and timeouts. These never
// carry an HTTP status, so callers can tell them apart from a *StatusError.
var ErrConnection = errors.New("dbl: connection failure")

// StatusError is returned when the service answers with anything but 200.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dbl: unexpected status code %d for %s", e.Code, e.URL)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

type Config struct {
	BaseURL    string
	UserAgent  string
	RPS        int
	MaxRetries int
	Timeout    time.Duration
	// Backoff is the first retry delay; it doubles on every further attempt.
	Backoff    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	signer     *crypto.Signer
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

func NewClient(signer *crypto.Signer, cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Every(time.Second / time.Duration(cfg.RPS))
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient: httpClient,
		signer:     signer,
		userAgent:  cfg.UserAgent,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		now:        time.Now,
	}
}

// ManifestFile is one downloadable file of an entry revision.
type ManifestFile struct {
	URI  string `json:"uri"`
	Size int64  `json:"size"`
}

// UnmarshalJSON accepts size as a number or a numeric string; both appear in the wild.
func (f *ManifestFile) UnmarshalJSON(b []byte) error {
	var raw struct {
		URI  string          `json:"uri"`
		Size json.RawMessage `json:"size"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f.URI = raw.URI
	f.Size = 0

	s := strings.Trim(strings.TrimSpace(string(raw.Size)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("manifest file %s: bad size %q", raw.URI, s)
	}
	f.Size = n
	return nil
}

// Manifest lists the files of the latest revision of an entry under the owner license.
type Manifest struct {
	Files []ManifestFile `json:"list"`
	Href  string         `json:"href"`
}

// FileURL returns the download location of f. Files live below Href.
func (m *Manifest) FileURL(f ManifestFile) string {
	return strings.TrimRight(m.Href, "/") + "/" + strings.TrimLeft(f.URI, "/")
}

type entriesResponse struct {
	Entries []catalog.Entry `json:"entries"`
}

// ListEntries returns every entry visible to the caller.
func (c *Client) ListEntries(ctx context.Context) ([]catalog.Entry, error) {
	var res entriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/entries", &res); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// GetEntryFiles returns the file manifest of the latest revision of entryID.
func (c *Client) GetEntryFiles(ctx context.Context, entryID string) (*Manifest, error) {
	u := c.manifestURL(entryID)

	var m Manifest
	if err := c.getJSON(ctx, u, &m); err != nil {
		return nil, err
	}
	if m.Href == "" {
		m.Href = u
	}
	return &m, nil
}

// FetchFile downloads the raw bytes of one manifest file.
//
// The declared size is set as a Content-Length request header, but net/http does
// not transmit Content-Length on a GET without a body. The server never sees it,
// so callers must not depend on it.
func (c *Client) FetchFile(ctx context.Context, m *Manifest, f ManifestFile) ([]byte, error) {
	header := http.Header{}
	header.Set("Content-Type", contentTypeFor(f.URI))
	header.Set("Content-Transfer-Encoding", "binary,gzip,deflate")
	header.Set("Content-Length", strconv.FormatInt(f.Size, 10))

	return c.get(ctx, m.FileURL(f), header)
}

// GetLicenses returns the raw license listing for the caller.
func (c *Client) GetLicenses(ctx context.Context) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/api/licenses", &res); err != nil {
		return nil, err
	}
	return res, nil
}

// TestAccess issues a signed request against the service root and reports the status code.
func (c *Client) TestAccess(ctx context.Context) (int, error) {
	_, err := c.get(ctx, c.baseURL, jsonHeader())
	if code := StatusCode(err); code != 0 {
		return code, nil
	}
	if err != nil {
		return 0, err
	}
	return http.StatusOK, nil
}

func (c *Client) manifestURL(entryID string) string {
	return c.baseURL + "/api/entries/" + url.PathEscape(entryID) + "/revisions/latest/license/owner"
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	body, err := c.get(ctx, u, jsonHeader())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string, header http.Header) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.attempt(ctx, u, header)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// attempt performs one signed GET. retry reports whether the failure is worth another try.
func (c *Client) attempt(ctx context.Context, u string, header http.Header) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	for k, v := range header {
		req.Header[k] = append([]string(nil), v...)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Date", crypto.HTTPDate(c.now()))
	c.signer.Sign(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, true, fmt.Errorf("%w: GET %s: %w", ErrConnection, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, &StatusError{Code: resp.StatusCode, URL: u}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, true, fmt.Errorf("%w: reading %s: %w", ErrConnection, u, err)
	}
	return body, false, nil
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

var mimeTypes = map[string]string{
	"zip":  "application/zip",
	"xml":  "text/xml",
	"usx":  "text/xml",
	"ldml": "text/xml",
}

func contentTypeFor(uri string) string {
	ext := strings.TrimPrefix(path.Ext(uri), ".")
	if t, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return "text/plain"
}
