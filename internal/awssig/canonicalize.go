package awssig

import (
	"net/url"
	"sort"
	"strings"
)

// canonicalizeHeaders lowercases names, trims values, sorts by name
// ascending, and groups multi-valued headers by joining with ",".
// authorization, content-length, and user-agent never participate.
func canonicalizeHeaders(headers map[string][]string) (signedHeaders, canonicalHeaders string) {
	grouped := make(map[string][]string)
	for name, values := range headers {
		lower := strings.ToLower(name)
		if excludedFromSigning[lower] {
			continue
		}
		grouped[lower] = append(grouped[lower], values...)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	var signedBuilder strings.Builder
	var canonicalBuilder strings.Builder
	for i, name := range names {
		if i > 0 {
			signedBuilder.WriteByte(';')
		}
		signedBuilder.WriteString(name)

		canonicalBuilder.WriteString(name)
		canonicalBuilder.WriteByte(':')
		for j, v := range grouped[name] {
			if j > 0 {
				canonicalBuilder.WriteByte(',')
			}
			canonicalBuilder.WriteString(strings.TrimSpace(v))
		}
		canonicalBuilder.WriteByte('\n')
	}

	return signedBuilder.String(), canonicalBuilder.String()
}

// canonicalizeQuery parses pairs, sorts by name (stable tie-break), and
// percent-encodes names/values with the strict encode set.
func canonicalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	type pair struct{ key, value string }
	var pairs []pair
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		var key, value string
		if idx := strings.IndexByte(part, '='); idx >= 0 {
			key, value = part[:idx], part[idx+1:]
		} else {
			key = part
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			k = key
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			v = value
		}
		pairs = append(pairs, pair{k, v})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strictEncode(p.key))
		b.WriteByte('=')
		b.WriteString(strictEncode(p.value))
	}
	return b.String()
}

// canonicalURI returns the raw path for service s3, or the path
// percent-encoded twice (preserving "/") for any other service.
func canonicalURI(service, path string) string {
	if path == "" {
		path = "/"
	}
	if service == "s3" {
		return path
	}
	return strictPathEncode(strictPathEncode(path))
}

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~"

// strictEncode percent-encodes every byte outside the RFC 3986 unreserved
// set.
func strictEncode(s string) string {
	return encodeWithAllowed(s, unreserved)
}

// strictPathEncode is strictEncode plus "/", preserved for path segments.
func strictPathEncode(s string) string {
	return encodeWithAllowed(s, unreserved+"/")
}

func encodeWithAllowed(s, allowed string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(allowed, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteString(strings.ToUpper(hexByte(c)))
	}
	return b.String()
}

const hexDigits = "0123456789abcdef"

func hexByte(c byte) string {
	return string([]byte{hexDigits[c>>4], hexDigits[c&0x0f]})
}
