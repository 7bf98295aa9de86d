package s3fs

import (
	"net/url"
	"strconv"
)

// urlValues builds a url.Values with a single key/value pair, for the
// single-parameter S3 sub-resource requests (?uploads, ?uploadId=...).
func urlValues(key, value string) url.Values {
	v := url.Values{}
	v.Set(key, value)
	return v
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
