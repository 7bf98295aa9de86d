package awssig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

const (
	algorithm            = "AWS4-HMAC-SHA256"
	emptySHA256Hex       = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	unsignedPayload      = "UNSIGNED-PAYLOAD"
	streamingPayload     = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
	defaultTokenHeader   = "x-amz-security-token"
	dateHeader           = "x-amz-date"
	contentSHA256Header  = "x-amz-content-sha256"
	authorizationHeader  = "authorization"
	// checksumHeader is the precomputed-checksum shortcut: if present, its
	// value is hex-encoded instead of hashing the body.
	checksumHeader = "x-amz-checksum-sha256"
)

var excludedFromSigning = map[string]bool{
	"authorization":  true,
	"content-length": true,
	"user-agent":     true,
}

// Authorizer signs HTTP requests and presigned URLs with a fixed credential,
// service, and region.
type Authorizer struct {
	credential  *types.AwsCredential
	service     string
	region      string
	date        *time.Time
	signPayload bool
	tokenHeader string
}

// New creates an Authorizer. SignPayload defaults to true, matching the
// source's default.
func New(credential *types.AwsCredential, service, region string) *Authorizer {
	return &Authorizer{
		credential:  credential,
		service:     service,
		region:      region,
		signPayload: true,
		tokenHeader: defaultTokenHeader,
	}
}

// WithSignPayload controls whether the payload digest is computed from the
// body (true) or reported as UNSIGNED-PAYLOAD (false).
func (a *Authorizer) WithSignPayload(sign bool) *Authorizer {
	a.signPayload = sign
	return a
}

// WithDate fixes the signing instant, for deterministic tests. Without this,
// Authorize and SignURL use time.Now().UTC().
func (a *Authorizer) WithDate(t time.Time) *Authorizer {
	d := t.UTC()
	a.date = &d
	return a
}

// WithTokenHeader overrides the header name used to carry a session token;
// defaults to x-amz-security-token.
func (a *Authorizer) WithTokenHeader(name string) *Authorizer {
	a.tokenHeader = name
	return a
}

func (a *Authorizer) now() time.Time {
	if a.date != nil {
		return *a.date
	}
	return time.Now().UTC()
}

// Authorize mutates req in place to carry SigV4 headers, treating the body
// as fully known (its length is len(req.Body)).
func (a *Authorizer) Authorize(req *types.HttpRequest) error {
	return a.authorize(req, false)
}

// AuthorizeStreaming is Authorize for a request whose body size is not known
// ahead of signing; the payload digest becomes the STREAMING sentinel
// instead of a hash of the (unavailable) full body.
func (a *Authorizer) AuthorizeStreaming(req *types.HttpRequest) error {
	return a.authorize(req, true)
}

func (a *Authorizer) authorize(req *types.HttpRequest, streaming bool) error {
	if req.Headers == nil {
		req.Headers = map[string][]string{}
	}

	if a.credential.HasToken() {
		setHeader(req.Headers, a.tokenHeader, a.credential.Token)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return errors.New(errors.Authorize, "invalid request URL").WithComponent("awssig").WithCause(err)
	}
	if u.Host == "" {
		return errors.New(errors.Authorize, "request URL has no host").WithComponent("awssig")
	}
	setHeader(req.Headers, "host", u.Host)

	date := a.now()
	dateStr := date.Format("20060102T150405Z")
	setHeader(req.Headers, dateHeader, dateStr)

	digest := a.payloadDigest(req, streaming)
	setHeader(req.Headers, contentSHA256Header, digest)

	signedHeaders, canonicalHeaders := canonicalizeHeaders(req.Headers)
	scope := a.scope(date)

	canonicalURI := canonicalURI(a.service, u.Path)
	canonicalQuery := canonicalizeQuery(u.RawQuery)
	canonicalRequest := strings.Join([]string{
		req.Method, canonicalURI, canonicalQuery, canonicalHeaders, signedHeaders, digest,
	}, "\n")

	stringToSign := a.stringToSign(date, scope, canonicalRequest)
	signature := a.sign(stringToSign, date)

	authValue := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, a.credential.KeyID, scope, signedHeaders, signature)
	setHeader(req.Headers, authorizationHeader, authValue)

	return nil
}

// payloadDigest computes the x-amz-content-sha256 value: UNSIGNED-PAYLOAD
// when payload signing is disabled, the precomputed checksum header when
// present, the streaming sentinel for a body of unknown size, or otherwise
// the SHA-256 hex digest of the body.
func (a *Authorizer) payloadDigest(req *types.HttpRequest, streaming bool) string {
	if !a.signPayload {
		return unsignedPayload
	}
	if checksum, ok := lookupHeader(req.Headers, checksumHeader); ok {
		return hex.EncodeToString([]byte(checksum))
	}
	if streaming {
		return streamingPayload
	}
	if len(req.Body) == 0 {
		return emptySHA256Hex
	}
	sum := sha256.Sum256(req.Body)
	return hex.EncodeToString(sum[:])
}

func (a *Authorizer) scope(date time.Time) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", date.Format("20060102"), a.region, a.service)
}

func (a *Authorizer) stringToSign(date time.Time, scope, canonicalRequest string) string {
	hashed := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		algorithm,
		date.Format("20060102T150405Z"),
		scope,
		hex.EncodeToString(hashed[:]),
	}, "\n")
}

// sign derives the signing key through the four-step HMAC chain
// (date -> region -> service -> "aws4_request") and signs toSign with it.
func (a *Authorizer) sign(toSign string, date time.Time) string {
	dateStr := date.Format("20060102")
	k1 := hmacSHA256([]byte("AWS4"+a.credential.SecretKey), []byte(dateStr))
	k2 := hmacSHA256(k1, []byte(a.region))
	k3 := hmacSHA256(k2, []byte(a.service))
	k4 := hmacSHA256(k3, []byte("aws4_request"))
	signature := hmacSHA256(k4, []byte(toSign))
	return hex.EncodeToString(signature)
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SignURL produces a presigned URL valid for expiresIn: only the host header
// participates, the payload digest is always UNSIGNED-PAYLOAD, and the
// signature is appended as a final query parameter after the other
// X-Amz-* parameters are in place.
func (a *Authorizer) SignURL(method, rawURL string, expiresIn time.Duration) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.New(errors.Authorize, "invalid URL").WithComponent("awssig").WithCause(err)
	}

	date := a.now()
	scope := a.scope(date)

	type pair struct{ key, value string }
	pairs := []pair{
		{"X-Amz-Algorithm", algorithm},
		{"X-Amz-Credential", a.credential.KeyID + "/" + scope},
		{"X-Amz-Date", date.Format("20060102T150405Z")},
		{"X-Amz-Expires", fmt.Sprintf("%d", int64(expiresIn.Seconds()))},
		{"X-Amz-SignedHeaders", "host"},
	}
	if a.credential.HasToken() {
		pairs = append(pairs, pair{"X-Amz-Security-Token", a.credential.Token})
	}

	var built strings.Builder
	for i, p := range pairs {
		if i > 0 {
			built.WriteByte('&')
		}
		built.WriteString(url.QueryEscape(p.key))
		built.WriteByte('=')
		built.WriteString(url.QueryEscape(p.value))
	}

	host := u.Host
	canonicalQuery := canonicalizeQuery(built.String())
	canonicalHeaders := "host:" + host + "\n"
	canonicalURIStr := canonicalURI(a.service, u.Path)
	canonicalRequest := strings.Join([]string{
		method, canonicalURIStr, canonicalQuery, canonicalHeaders, "host", unsignedPayload,
	}, "\n")

	stringToSign := a.stringToSign(date, scope, canonicalRequest)
	signature := a.sign(stringToSign, date)

	built.WriteByte('&')
	built.WriteString(url.QueryEscape("X-Amz-Signature"))
	built.WriteByte('=')
	built.WriteString(url.QueryEscape(signature))

	if u.RawQuery != "" {
		return u.Scheme + "://" + u.Host + u.Path + "?" + u.RawQuery + "&" + built.String(), nil
	}
	return u.Scheme + "://" + u.Host + u.Path + "?" + built.String(), nil
}

func setHeader(headers map[string][]string, name, value string) {
	headers[name] = []string{value}
}

func lookupHeader(headers map[string][]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}
