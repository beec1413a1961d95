// Package allowlist decides whether a user-supplied URL may be connected to.
//
// Operators configure a list of entries. An entry without "://" is a bare
// host name and allows any URL on that host regardless of scheme, port or
// path. Any other entry is a full URL rule: scheme and host must be equal,
// a non-default port must match, and a path restricts the candidate to that
// path or anything below it.
//
// Candidates and full entries pass through Normalize first. Normalization
// percent-decodes, lowercases scheme and host, resolves dot segments,
// collapses slashes, strips default ports and drops the fragment. Anything
// ambiguous is rejected, and a rejected candidate is never allowed.
//
//	v, err := allowlist.NewFromString("example.com,wss://api.example.org:9443/live")
//	if err != nil {
//	    return err // *allowlist.ConfigError
//	}
//	if d := v.Check(target); !d.Allowed {
//	    logger.Warn("target denied", "url", target, "reason", d.Reason)
//	}
package allowlist
