package intercept

import (
	"net/url"
	"strings"
)

// ParamSource selects which part of the redirect URL carries the response parameters.
type ParamSource int

const (
	// FromQuery reads ?a=b&c=d (response_mode=query)
	FromQuery ParamSource = iota
	// FromFragment reads #a=b&c=d (response_mode=fragment)
	FromFragment
)

func (s ParamSource) String() string {
	if s == FromFragment {
		return "fragment"
	}
	return "query"
}

// Params are the decoded key/value pairs of a redirect.
type Params map[string]string

// Get returns the value for key, or "" if absent.
func (p Params) Get(key string) string {
	return p[key]
}

// Missing returns the keys from required that are absent or empty.
func (p Params) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if p[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// ExtractParams decodes the query or fragment of u. Keys and values are percent-decoded
// ('+' is kept literally), pairs without '=' or with invalid escapes are dropped, and the
// first occurrence of a key wins.
func ExtractParams(u *url.URL, source ParamSource) Params {
	raw := u.RawQuery
	if source == FromFragment {
		raw = u.EscapedFragment()
	}
	return parsePairs(raw)
}

func parsePairs(raw string) Params {
	params := make(Params)
	for _, pair := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		decodedKey, err := url.PathUnescape(key)
		if err != nil || decodedKey == "" {
			continue
		}
		decodedValue, err := url.PathUnescape(value)
		if err != nil {
			continue
		}
		if _, seen := params[decodedKey]; seen {
			continue
		}
		params[decodedKey] = decodedValue
	}
	return params
}

// MatchesPrefix reports whether destination starts with prefix, ignoring case, and the
// match ends on a URL boundary so that "https://host.evil" does not match "https://host".
func MatchesPrefix(destination, prefix string) bool {
	if prefix == "" || len(destination) < len(prefix) {
		return false
	}
	if !strings.EqualFold(destination[:len(prefix)], prefix) {
		return false
	}
	if len(destination) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	switch destination[len(prefix)] {
	case '/', '?', '#', ':':
		return true
	}
	return false
}
