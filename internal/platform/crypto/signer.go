package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"
)

// AuthorizationHeader carries the request signature computed by Signer.
const AuthorizationHeader = "X-DBL-Authorization"

const vendorHeaderPrefix = "x-dbl-"

// Headers that are always part of the signing string, even when absent.
var signedHeaders = []string{"content-type", "date"}

// Credentials identify a caller of the library API. Token is public, PrivateKey is not.
type Credentials struct {
	Token      string
	PrivateKey string
}

// Signer computes the v1 authorization header. It holds no per-request state and
// is safe for concurrent use.
type Signer struct {
	token      string
	privateKey string
}

func NewSigner(c Credentials) *Signer {
	return &Signer{
		token:      strings.ToLower(c.Token),
		privateKey: strings.ToLower(c.PrivateKey),
	}
}

// Token returns the normalized api token.
func (s *Signer) Token() string {
	return s.token
}

// Sign sets the authorization header on r. Date and Content-Type must already be set.
func (s *Signer) Sign(r *http.Request) {
	r.Header.Set(AuthorizationHeader, s.Authorization(r.Method, r.URL.RequestURI(), r.Header))
}

// Authorization returns the header value for a request with the given method, path and headers.
// The query part of path is ignored.
func (s *Signer) Authorization(method, path string, header http.Header) string {
	mac := hmac.New(sha1.New, []byte(s.token))
	mac.Write([]byte(SigningString(method, path, header)))
	mac.Write([]byte(s.privateKey))
	return "version=v1,token=" + s.token + ",signature=" + hex.EncodeToString(mac.Sum(nil))
}

// SigningString builds the canonical text that gets signed:
//
//	GET /api/entries
//	<content-type value>
//	<date value>
//	x-dbl-foo:<value>
//
// with header lines sorted by lowercased name.
func SigningString(method, path string, header http.Header) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	collected := make(map[string]string, len(signedHeaders))
	for _, name := range signedHeaders {
		collected[name] = ""
	}
	authName := strings.ToLower(AuthorizationHeader)
	for name, values := range header {
		k := strings.ToLower(name)
		if k == authName {
			continue
		}
		if k == "content-type" || k == "date" || strings.HasPrefix(k, vendorHeaderPrefix) {
			collected[k] = strings.TrimSpace(strings.Join(values, ", "))
		}
	}

	keys := make([]string, 0, len(collected))
	for k := range collected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)
	b.WriteByte('\n')
	for _, k := range keys {
		if strings.HasPrefix(k, vendorHeaderPrefix) {
			b.WriteString(k)
			b.WriteByte(':')
		}
		b.WriteString(collected[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// HTTPDate formats t as an RFC 1123 GMT date. Day and month names are always English.
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
