// Package utils provides small helpers shared by commands and writers.
package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// IsURL reports whether location is an absolute http or https URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)

	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// BuildHeaders creates request headers with defaults. Custom headers replace
// defaults of the same name.
func BuildHeaders(userAgent string, customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "text/plain, */*;q=0.8")
	headers.Set("Accept-Encoding", "identity")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
