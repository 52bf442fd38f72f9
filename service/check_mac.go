package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// BuildCanonicalString renders params as the provider's canonical signing
// input: blank fields dropped, keys ordered byte-wise, joined as k=v&...,
// framed by the shared secret pair. The receiving side recomputes the same
// string, so any divergence here fails authentication silently.
func BuildCanonicalString(params map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	return "HashKey=" + hashKey + "&" + strings.Join(pairs, "&") + "&HashIV=" + hashIV
}

// dotNetUnescaper restores the provider's legacy URL-encoding dialect after
// a full percent-encode + lowercase: the RFC 3986 unreserved marks stay
// literal and spaces become '+'. Exactly this whitelist, no more.
var dotNetUnescaper = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
	"%20", "+",
)

// CheckMacValue computes the provider authentication token for a canonical
// string: percent-encode, lowercase, restore the legacy whitelist, SHA-256,
// uppercase hex.
func CheckMacValue(canonical string) string {
	encoded := strings.ToLower(url.QueryEscape(canonical))
	encoded = dotNetUnescaper.Replace(encoded)
	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SignPayload is the composition used on every outbound request.
func SignPayload(params map[string]string, hashKey, hashIV string) string {
	return CheckMacValue(BuildCanonicalString(params, hashKey, hashIV))
}
