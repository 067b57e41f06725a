package logging

import (
	"regexp"
	"strings"
)

const redactionPlaceholder = "***"

var allowlistedEnvKeys = map[string]struct{}{
	"PATH":                 {},
	"HOME":                 {},
	"USER":                 {},
	"SHELL":                {},
	"PWD":                  {},
	"LANG":                 {},
	"LC_ALL":               {},
	"TMPDIR":               {},
	"TMP":                  {},
	"TERM":                 {},
	"LOGNAME":              {},
	"EDITOR":               {},
	"TRAINCFG_CONFIG_ROOT": {},
}

// SanitizeOverrides returns a sanitized rendering of the CLI override
// arguments. Assignments whose key looks sensitive (tokens, passwords,
// API keys) keep their key but have the value redacted, leaving the
// overall structure intact for diagnostics.
func SanitizeOverrides(args []string) string {
	if len(args) == 0 {
		return ""
	}

	sanitized := make([]string, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || value == "" {
			sanitized = append(sanitized, arg)
			continue
		}
		if isSensitiveKey(key) {
			sanitized = append(sanitized, key+"="+redactionPlaceholder)
			continue
		}
		sanitized = append(sanitized, arg)
	}
	return strings.Join(sanitized, " ")
}

// SanitizeEnv returns a sanitized copy of the provided environment
// variables. Sensitive values are replaced with a placeholder while
// allowlisted keys pass through.
func SanitizeEnv(env map[string]string) map[string]string {
	if len(env) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(env))
	for key, value := range env {
		if _, ok := allowlistedEnvKeys[key]; ok {
			out[key] = value
			continue
		}
		if isSensitiveKey(key) {
			out[key] = redactionPlaceholder
			continue
		}
		out[key] = value
	}
	return out
}

var sensitivePattern = regexp.MustCompile(`(?i)(password|passphrase|secret|token|apikey|privatekey)=([^\s]{1,128})`)

// SanitizeText redacts sensitive key/value pairs inside freeform strings.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	return sensitivePattern.ReplaceAllStringFunc(text, func(match string) string {
		parts := strings.SplitN(match, "=", 2)
		if len(parts) != 2 {
			return match
		}
		return parts[0] + "=" + redactionPlaceholder
	})
}

func isSensitiveKey(text string) bool {
	lower := strings.ToLower(text)
	// api_key, api-key and apiKey all collapse to the same needle.
	lower = strings.NewReplacer("_", "", "-", "", ".", "").Replace(lower)
	return strings.Contains(lower, "password") ||
		strings.Contains(lower, "passphrase") ||
		strings.Contains(lower, "secret") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "apikey") ||
		strings.Contains(lower, "privatekey")
}
