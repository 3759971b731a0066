// Package urlcheck validates destination URLs before they are shortened.
package urlcheck

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MaxURLLength bounds the accepted destination URL length.
const MaxURLLength = 2048

// Validate checks that rawURL is an absolute http(s) URL that is safe to
// redirect to. Private, loopback, and link-local hosts are rejected so the
// service cannot be used to probe internal networks.
func Validate(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("url too long (maximum %d characters)", MaxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}

	host := u.Hostname()
	if host == "" {
		return errors.New("url must include a host")
	}

	if isBlockedHost(host) {
		return errors.New("url points to a private or local address")
	}

	return nil
}

func isBlockedHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Hostname that isn't a literal IP; resolution-time checks are out
		// of scope here.
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
