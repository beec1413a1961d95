package allowlist

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// defaultPorts maps schemes to the port that is implied when none is given.
var defaultPorts = map[string]int{
	"http":  80,
	"ws":    80,
	"https": 443,
	"wss":   443,
}

// DefaultPort returns the registered default port for scheme, or 0 if unknown.
func DefaultPort(scheme string) int {
	return defaultPorts[scheme]
}

// URI is a canonical absolute URL as produced by Normalize.
type URI struct {
	Scheme   string
	User     *url.Userinfo // preserved for dialing, never used for matching
	Host     string        // lowercase; IPv6 literals keep their brackets
	Port     int           // 0 when absent or equal to the scheme default
	Path     string        // always starts with "/"
	RawQuery string        // verbatim, without the "?" delimiter
}

// EffectivePort returns the explicit port, or the scheme default when none is set.
func (u *URI) EffectivePort() int {
	if u.Port != 0 {
		return u.Port
	}
	return DefaultPort(u.Scheme)
}

// URL returns the canonical form as a *url.URL.
func (u *URI) URL() *url.URL {
	host := u.Host
	if u.Port != 0 {
		host += ":" + strconv.Itoa(u.Port)
	}
	return &url.URL{
		Scheme:   u.Scheme,
		User:     u.User,
		Host:     host,
		Path:     u.Path,
		RawQuery: u.RawQuery,
	}
}

// String renders the canonical URL. Normalize(u.String()) yields u again.
func (u *URI) String() string {
	return u.URL().String()
}

// Normalize converts raw URL text into its canonical form, or rejects it.
//
// The steps run in a fixed order: parse as an absolute URL, which decodes the
// path exactly once, lowercase scheme and host, resolve the path, strip a
// default port, drop the fragment. Encoded dot segments and slashes therefore
// resolve like their literal forms. A decoded path that still holds a %XX
// escape was encoded more than once and is rejected. The query is kept as
// written. Every returned error wraps ErrRejected.
func Normalize(raw string) (*URI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, reject("empty url")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		var escErr url.EscapeError
		if errors.As(err, &escErr) {
			return nil, reject("malformed percent-encoding")
		}
		return nil, reject("unparseable url")
	}
	if parsed.Scheme == "" || parsed.Opaque != "" || parsed.Host == "" {
		return nil, reject("not an absolute url")
	}
	if hasEscape(parsed.Path) {
		return nil, reject("url is percent-encoded more than once")
	}

	host := lowerHost(parsed.Hostname())
	if host == "" {
		return nil, reject("missing host")
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	port := 0
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, reject("invalid port " + p)
		}
	}

	path, ok := normalizePath(parsed.Path)
	if !ok {
		return nil, reject("path escapes the root")
	}

	u := &URI{
		Scheme:   strings.ToLower(parsed.Scheme),
		User:     parsed.User,
		Host:     host,
		Port:     port,
		Path:     path,
		RawQuery: parsed.RawQuery,
	}
	if u.Port == DefaultPort(u.Scheme) {
		u.Port = 0
	}
	return u, nil
}

// hasEscape reports whether s contains a '%' followed by two hex digits.
func hasEscape(s string) bool {
	for i := strings.IndexByte(s, '%'); i >= 0 && i+2 < len(s); {
		if isHex(s[i+1]) && isHex(s[i+2]) {
			return true
		}
		next := strings.IndexByte(s[i+1:], '%')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// lowerHost lowercases a host name. An IPv6 zone keeps its case.
func lowerHost(h string) string {
	addr, zone, found := strings.Cut(h, "%")
	if !found {
		return strings.ToLower(h)
	}
	return strings.ToLower(addr) + "%" + zone
}

// normalizePath collapses repeated slashes, drops "." segments and resolves
// "..". It reports false when a ".." segment would climb above the root.
func normalizePath(p string) (string, bool) {
	if p == "" {
		return "/", true
	}

	segments := make([]string, 0, strings.Count(p, "/"))
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return "", false
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	return "/" + strings.Join(segments, "/"), true
}
