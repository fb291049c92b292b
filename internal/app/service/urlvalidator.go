package service

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

var (
	httpSchemePrefix = regexp.MustCompile(`^https?://`)
	domainPattern    = regexp.MustCompile(`(?i)^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+([a-z]{2,63}|xn--[a-z0-9-]{1,59})\.?$`)

	disallowedSchemes = []string{"javascript:", "data:", "vbscript:", "file:", "about:", "blob:", "ftp:"}
)

// ValidateLongURL trims and normalizes a user supplied redirect target.
// The scheme blocklist matches anywhere in the string, including path and query.
func ValidateLongURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", invalid("Long URL is required")
	}

	if !httpSchemePrefix.MatchString(value) {
		value = "https://" + value
	}

	if err := validate.Var(value, "http_url"); err != nil {
		return "", invalid("malformed URL")
	}
	parsed, err := url.Parse(value)
	if err != nil || !validHost(parsed.Hostname()) {
		return "", invalid("malformed URL")
	}

	lower := strings.ToLower(value)
	for _, pattern := range disallowedSchemes {
		if strings.Contains(lower, pattern) {
			return "", invalid("disallowed scheme")
		}
	}

	return value, nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil {
		return true
	}
	return len(host) <= 253 && domainPattern.MatchString(host)
}
