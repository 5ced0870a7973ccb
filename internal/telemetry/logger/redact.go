package logger

import (
	"log/slog"
	"strings"
)

// tokenPrefix starts every app token.
const tokenPrefix = "sktk_"

const redactedValue = "***REDACTED***"

// secretKeys are key fragments whose non-empty string values are dropped.
var secretKeys = []string{"token", "secret", "password", "credential", "authorization"}

// redact is the slog ReplaceAttr hook. slog calls it for every leaf
// attribute, including members of groups. App tokens are masked under any
// key; other strings are redacted when the key looks like a credential.
func redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	switch {
	case strings.HasPrefix(v, tokenPrefix):
		return slog.String(a.Key, maskToken(v))
	case v != "" && secretKey(a.Key):
		return slog.String(a.Key, redactedValue)
	}
	return a
}

func secretKey(key string) bool {
	key = strings.ToLower(key)
	for _, frag := range secretKeys {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// maskToken keeps the prefix and three characters at each end of the body.
func maskToken(tok string) string {
	body := strings.TrimPrefix(tok, tokenPrefix)
	if len(body) <= 6 {
		return tokenPrefix + "***"
	}
	return tokenPrefix + body[:3] + "..." + body[len(body)-3:]
}
