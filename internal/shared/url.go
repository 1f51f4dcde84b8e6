package shared

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const shareIdentifierParam = "si"

// NormalizeURL strips tracking query parameters (utm_* and the share identifier) from raw.
//
// The stripped parameter names are returned sorted so callers can warn about them. The
// remaining parameters keep their order, and a URL without tracking parameters is returned
// byte-for-byte unchanged.
func NormalizeURL(raw string) (string, []string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad url %q: %v", ErrInvalidArgument, raw, err)
	}

	if _, err := url.ParseQuery(u.RawQuery); err != nil {
		return "", nil, fmt.Errorf("%w: bad query in %q: %v", ErrInvalidArgument, raw, err)
	}

	var stripped, kept []string
	for pair := range strings.SplitSeq(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		if key == shareIdentifierParam || strings.HasPrefix(key, "utm_") {
			stripped = append(stripped, key)
			continue
		}
		kept = append(kept, pair)
	}
	if len(stripped) == 0 {
		return raw, nil, nil
	}

	stripped = lo.Uniq(stripped)
	sort.Strings(stripped)
	u.RawQuery = strings.Join(kept, "&")
	return u.String(), stripped, nil
}
