package allowlist

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Entry is one parsed allow-list rule. Entries are values; a Validator never
// hands out references to its own copies.
type Entry struct {
	// HostOnly is true when the operator supplied a bare host name.
	HostOnly bool
	// Scheme must match for full entries. Always lowercase, empty when HostOnly.
	Scheme string
	// Host is the lowercase host name.
	Host string
	// Port is set only when the entry names a non-default port.
	Port int
	// PathPrefix is set only when the entry path is not "/". No trailing slash.
	PathPrefix string
}

// String renders the entry in configuration form.
func (e Entry) String() string {
	if e.HostOnly {
		return e.Host
	}
	var b strings.Builder
	b.WriteString(e.Scheme)
	b.WriteString("://")
	b.WriteString(e.Host)
	if e.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Port))
	}
	b.WriteString(e.PathPrefix)
	return b.String()
}

// Matches reports whether the canonical URI u is permitted by this entry.
// Hosts are always compared whole; a host never matches by containment.
func (e Entry) Matches(u *URI) bool {
	if u == nil {
		return false
	}
	if e.HostOnly {
		return strings.EqualFold(u.Host, e.Host)
	}
	if !strings.EqualFold(u.Scheme, e.Scheme) || !strings.EqualFold(u.Host, e.Host) {
		return false
	}
	if e.Port != 0 && u.EffectivePort() != e.Port {
		return false
	}
	if e.PathPrefix == "" {
		return true
	}
	return strings.EqualFold(u.Path, e.PathPrefix) || hasPrefixFold(u.Path, e.PathPrefix+"/")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// canNeverMatch reports whether a host-only entry contains characters no
// normalized URL host can have, e.g. "localhost:8080".
func (e Entry) canNeverMatch() bool {
	if !e.HostOnly {
		return false
	}
	if strings.ContainsAny(e.Host, "/?#@ \t") {
		return true
	}
	return strings.Contains(e.Host, ":") && !strings.HasPrefix(e.Host, "[")
}

// ParseEntry parses one allow-list entry. Surrounding whitespace is ignored.
// An entry without "://" is host-only and accepted as-is unless strict is
// set, in which case it must be a valid (IDNA lookup) host name.
func ParseEntry(raw string, strict bool) (Entry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{}, &ConfigError{Err: ErrEmptyAllowList}
	}

	if !strings.Contains(raw, "://") {
		host := strings.ToLower(raw)
		if strict {
			if _, err := idna.Lookup.ToASCII(host); err != nil {
				return Entry{}, &ConfigError{Entry: raw, Err: ErrInvalidHost}
			}
		}
		return Entry{HostOnly: true, Host: host}, nil
	}

	u, err := Normalize(raw)
	if err != nil {
		return Entry{}, &ConfigError{Entry: raw, Err: fmt.Errorf("%w: %w", ErrInvalidEntry, err)}
	}

	e := Entry{
		Scheme: u.Scheme,
		Host:   u.Host,
		Port:   u.Port,
	}
	if u.Path != "/" {
		e.PathPrefix = u.Path
	}
	return e, nil
}
