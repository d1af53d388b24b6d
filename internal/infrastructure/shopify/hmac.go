package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// VerifySignature checks that an OAuth callback genuinely originated from
// Shopify. The platform signs the query string minus the hmac field: the
// remaining keys are sorted ascending, joined as key=value pairs with '&',
// and the HMAC-SHA256 of that string (hex encoded) must match the supplied
// hmac parameter. Presence of required fields is the caller's concern; a
// missing or malformed hmac simply fails verification.
func VerifySignature(params map[string]string, secret string) bool {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(params["hmac"])
	if err != nil {
		return false
	}
	return hmac.Equal(expected, supplied)
}
