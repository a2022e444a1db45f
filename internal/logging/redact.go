package logging

import (
	"strings"
)

// redactedValue replaces sensitive values in logged gateway payloads.
const redactedValue = "[REDACTED]"

// denylist holds lowercase key fragments whose values must never be
// logged. Matching is substring-based so "card_number", "cardNumber" and
// "source_card_number" are all caught.
var denylist = []string{
	"authorization",
	"card_number",
	"cardnumber",
	"pan",
	"cvv",
	"cvc",
	"secret",
	"token",
	"password",
	"api_key",
	"apikey",
	"signature",
}

// allowlist holds exact lowercase keys that are safe despite matching a
// deny fragment (e.g. "card_last4" matches nothing, but "token_type" is
// harmless metadata).
var allowlist = map[string]bool{
	"token_type": true,
	"card_last4": true,
	"card_brand": true,
}

// Sensitive reports whether a header or body key must be redacted.
func Sensitive(key string) bool {
	k := strings.ToLower(key)
	if allowlist[k] {
		return false
	}
	for _, frag := range denylist {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

// RedactMap returns a copy of m with sensitive values replaced. Nested
// maps are redacted recursively; the input is never mutated.
func RedactMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if Sensitive(k) {
			out[k] = redactedValue
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = RedactMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// RedactHeaders returns a copy of headers with sensitive values replaced.
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if Sensitive(k) {
			out[k] = redactedValue
		} else {
			out[k] = v
		}
	}
	return out
}
