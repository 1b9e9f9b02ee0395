package patterns

import "github.com/knoxsec/knox/internal/types"

var defaults = []types.Pattern{
	// Secrets
	{
		Name:        "hardcoded_api_key",
		Pattern:     `(?i)(api[_-]?key|apikey)\s*[:=]\s*["']([a-zA-Z0-9_\-]{20,})["']`,
		Severity:    types.SevCritical,
		Category:    "secrets",
		Description: "Hardcoded API key detected",
	},
	{
		Name:        "hardcoded_password",
		Pattern:     `(?i)(password|passwd|pwd)\s*[:=]\s*["']([^"']{8,})["']`,
		Severity:    types.SevCritical,
		Category:    "secrets",
		Description: "Hardcoded password detected",
	},
	// Injection
	{
		Name:        "sql_injection",
		Pattern:     `(?i)(execute|query)\s*\(\s*["'].*\+.*["']`,
		Severity:    types.SevHigh,
		Category:    "injection",
		Description: "Potential SQL injection vulnerability",
	},
	{
		Name:        "command_injection",
		Pattern:     `(?i)(os\.system|subprocess\.call|exec)\s*\(`,
		Severity:    types.SevHigh,
		Category:    "injection",
		Description: "Potential command injection risk",
	},
	// Crypto
	{
		Name:        "weak_crypto_md5",
		Pattern:     `(?i)(md5|hashlib\.md5)\s*\(`,
		Severity:    types.SevMed,
		Category:    "crypto",
		Description: "Weak cryptographic algorithm MD5",
	},
	{
		Name:        "weak_crypto_sha1",
		Pattern:     `(?i)(sha1|hashlib\.sha1)\s*\(`,
		Severity:    types.SevMed,
		Category:    "crypto",
		Description: "Weak cryptographic algorithm SHA1",
	},
	{
		Name:        "insecure_deserialization",
		Pattern:     `(?i)(pickle\.loads?|yaml\.load)\s*\(`,
		Severity:    types.SevHigh,
		Category:    "deserialization",
		Description: "Insecure deserialization detected",
	},
	{
		Name:        "xss_vulnerability",
		Pattern:     `(?i)(innerHTML|dangerouslySetInnerHTML|document\.write)\s*=`,
		Severity:    types.SevHigh,
		Category:    "xss",
		Description: "Potential XSS vulnerability",
	},
	{
		Name:        "debug_mode",
		Pattern:     `(?i)(DEBUG|debug)\s*=\s*(True|true|1)`,
		Severity:    types.SevMed,
		Category:    "config",
		Description: "Debug mode enabled",
	},
	{
		Name:        "ssl_verification_disabled",
		Pattern:     `(?i)verify\s*=\s*(False|false|0)`,
		Severity:    types.SevHigh,
		Category:    "crypto",
		Description: "SSL certificate verification disabled",
	},
}

// Defaults returns a copy of the built-in pattern table in registration order.
func Defaults() []types.Pattern {
	out := make([]types.Pattern, len(defaults))
	copy(out, defaults)
	return out
}

// IDs returns the names of the built-in patterns.
func IDs() []string {
	ids := make([]string, 0, len(defaults))
	for _, p := range defaults {
		ids = append(ids, p.Name)
	}
	return ids
}

// Categories returns the distinct categories of ps in first-seen order.
func Categories(ps []types.Pattern) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range ps {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// Describe maps pattern names to descriptions, used by reports.
func Describe(ps []types.Pattern) map[string]string {
	out := make(map[string]string, len(ps))
	for _, p := range ps {
		out[p.Name] = p.Description
	}
	return out
}
