package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	hostnameRe = regexp.MustCompile(`(?i)^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*\.?$`)
	ipv4Re     = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// ValidateTargetURL accepts http(s) URLs whose host is a domain name, localhost
// or an IPv4 address, with an optional numeric port.
func ValidateTargetURL(rawURL string) error {
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return fmt.Errorf("url contains whitespace")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("credentials are not allowed in the url")
	}
	host := u.Host
	if h, port, err := net.SplitHostPort(u.Host); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid port %q", port)
		}
		host = h
	} else if strings.Contains(u.Host, ":") {
		return fmt.Errorf("invalid host %q", u.Host)
	}
	switch {
	case host == "":
		return fmt.Errorf("missing host")
	case strings.EqualFold(host, "localhost"):
	case ipv4Re.MatchString(host):
		if net.ParseIP(host) == nil {
			return fmt.Errorf("invalid IPv4 address %q", host)
		}
	case hostnameRe.MatchString(host):
	default:
		return fmt.Errorf("invalid host %q", host)
	}
	return nil
}

// ForceQueryParam sets key=value in the query of rawURL. Pairs with the same
// decoded key are dropped, the remaining pairs keep their order and encoding, and
// the new pair is appended last.
func ForceQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	var kept []string
	if u.RawQuery != "" {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if pair == "" {
				continue
			}
			k := pair
			if i := strings.IndexByte(pair, '='); i >= 0 {
				k = pair[:i]
			}
			if dk, err := url.QueryUnescape(k); err == nil && dk == key {
				continue
			}
			kept = append(kept, pair)
		}
	}
	kept = append(kept, url.QueryEscape(key)+"="+escapeQueryValue(value))
	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String(), nil
}

// escapeQueryValue escapes like url.QueryEscape but leaves ':' readable, which
// is how the site writes its ordering values.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%3A", ":")
}
