package logger

import (
	"regexp"
	"strings"
)

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// sensitiveDataRules redact credentials embedded in free text
var sensitiveDataRules = []redactionRule{
	// Bearer tokens in Authorization headers
	{regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`), "${1}[REDACTED]"},
	// Bare JWTs
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{5,}\.eyJ[a-zA-Z0-9_-]{5,}\.[a-zA-Z0-9_-]{5,}`), "[REDACTED]"},
	// key=value, key: value and "key":"value" pairs
	{regexp.MustCompile(`(?i)((?:api[_-]?key|access[_-]?token|token|secret|passw(?:or)?d)"?\s*[:=]\s*"?)([^;,\s"&]{3,})`), "${1}[REDACTED]"},
}

// sensitiveKeys are field names whose values are never logged
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"confirm_password": {},
	"passwd":           {},
	"secret":           {},
	"token":            {},
	"access_token":     {},
	"authorization":    {},
	"cookie":           {},
	"api_key":          {},
	"apikey":           {},
	"dsn":              {},
}

// IsSensitiveKey reports whether a field with this key must be redacted
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	return strings.HasSuffix(k, "_token") || strings.HasSuffix(k, "_password") || strings.HasSuffix(k, "_secret")
}

// RedactSensitiveData replaces credentials in input with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, rule := range sensitiveDataRules {
		input = rule.pattern.ReplaceAllString(input, rule.replacement)
	}

	return input
}
