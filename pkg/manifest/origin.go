package manifest

import (
	"fmt"
	"net/url"
	"strings"
)

// versionMarker starts a cache-busting query parameter. Everything from the
// marker on is ignored when deriving a logical key.
const versionMarker = "?v="

// Origin is the scheme and authority the coordinator serves resources for.
// Logical keys are derived relative to it.
type Origin struct {
	base string // scheme://host[:port], no trailing slash
}

// ParseOrigin parses an origin URL. A trailing "/" is accepted; any other
// path, query or fragment is rejected.
func ParseOrigin(raw string) (Origin, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Origin{}, fmt.Errorf("invalid origin %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Origin{}, fmt.Errorf("invalid origin %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return Origin{}, fmt.Errorf("invalid origin %q: missing host", raw)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return Origin{}, fmt.Errorf("invalid origin %q: must not contain a path, query or fragment", raw)
	}
	return Origin{base: u.Scheme + "://" + u.Host}, nil
}

// MustParseOrigin is ParseOrigin for static values; it panics on error.
func MustParseOrigin(raw string) Origin {
	o, err := ParseOrigin(raw)
	if err != nil {
		panic(err)
	}
	return o
}

// String returns the origin without a trailing slash.
func (o Origin) String() string {
	return o.base
}

// Key derives the logical key of an absolute request URL. It strips a
// "?v=<token>" suffix and maps the bare origin, origin + "/#..." and an empty
// path to RootKey. URLs outside the origin report false.
func (o Origin) Key(rawURL string) (string, bool) {
	if o.base == "" || !strings.HasPrefix(rawURL, o.base) {
		return "", false
	}
	rest := rawURL[len(o.base):]
	if rest != "" && rest[0] != '/' && rest[0] != '?' && rest[0] != '#' {
		// Same prefix, different host ("https://app.example" vs "https://app.example.org").
		return "", false
	}
	if rest == "" || strings.HasPrefix(rest, "/#") || strings.HasPrefix(rest, "#") {
		return RootKey, true
	}

	key := strings.TrimPrefix(rest, "/")
	if i := strings.Index(key, versionMarker); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return RootKey, true
	}
	return key, true
}

// URL returns the canonical absolute URL of a logical key. Every alias of a
// resource ("?v=" variants, fragments on the root) maps to the same URL.
func (o Origin) URL(key string) string {
	if key == RootKey || key == "" {
		return o.base + "/"
	}
	return o.base + "/" + key
}
