package allowlist

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/wsfeed/wsfeed/pkg/logging"
)

// Option configures a Validator.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	strictHosts bool
}

// WithLogger sets the logger used for construction warnings and decisions.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrictHosts rejects host-only entries that are not valid host names.
func WithStrictHosts() Option {
	return func(o *options) {
		o.strictHosts = true
	}
}

// Validator decides whether a URL may be connected to. It is immutable after
// construction and safe for concurrent use.
type Validator struct {
	entries []Entry
	log     *slog.Logger
}

// Decision is the outcome of Check.
type Decision struct {
	Allowed bool
	// Reason explains a denial. Empty when allowed.
	Reason string
	// URI is the canonical form of the candidate, nil when it failed normalization.
	URI *URI
	// Entry is the first entry that matched. Zero when denied.
	Entry Entry
}

// New builds a Validator from individual entries.
func New(entries []string, opts ...Option) (*Validator, error) {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	v := &Validator{log: o.logger}
	for _, raw := range entries {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		e, err := ParseEntry(raw, o.strictHosts)
		if err != nil {
			return nil, err
		}
		if e.canNeverMatch() {
			o.logger.Warn("allow-list entry can never match a url host", "entry", e.Host)
		}
		v.entries = append(v.entries, e)
	}

	if len(v.entries) == 0 {
		return nil, &ConfigError{Err: ErrEmptyAllowList}
	}

	o.logger.Debug("allow list ready", "entries", len(v.entries))
	return v, nil
}

// NewFromString builds a Validator from a comma-delimited list.
func NewFromString(list string, opts ...Option) (*Validator, error) {
	return New(strings.Split(list, ","), opts...)
}

// IsAllowed reports whether raw may be connected to. Blank or malformed
// input is never allowed.
func (v *Validator) IsAllowed(raw string) bool {
	return v.Check(raw).Allowed
}

// Check evaluates raw and reports why it was allowed or denied.
func (v *Validator) Check(raw string) Decision {
	if strings.TrimSpace(raw) == "" {
		return Decision{Reason: "empty url"}
	}

	u, err := Normalize(raw)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ErrRejected) {
			reason = strings.TrimPrefix(reason, ErrRejected.Error()+": ")
		}
		v.log.Debug("url rejected", "url", raw, "reason", reason)
		return Decision{Reason: reason}
	}

	for _, e := range v.entries {
		if e.Matches(u) {
			return Decision{Allowed: true, URI: u, Entry: e}
		}
	}

	v.log.Debug("url not in allow list", "url", u.String())
	return Decision{Reason: "no allow-list entry matches " + u.String(), URI: u}
}

// Entries returns a copy of the parsed entries in configuration order.
func (v *Validator) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}
