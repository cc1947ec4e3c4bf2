// Package redact scrubs third-party credentials out of log output. The
// pipeline talks to several API hosts (RapidAPI scraper hosts, the LLM
// vendor, the object/relational store) whose keys are loaded from the
// environment and must never land verbatim in a log line.
package redact

import "regexp"

// CompiledPattern pairs a pre-compiled regex with its replacement text.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns covers every credential shape the pipeline's
// configuration surface can produce: RapidAPI keys, bearer/authorization
// headers, OpenAI-style secret keys, and Supabase JWT service-role keys.
var builtinPatterns = []struct {
	name        string
	pattern     string
	replacement string
}{
	{
		name:        "authorization_header",
		pattern:     `(?i)(authorization["':=\s]+)(bearer\s+)?[A-Za-z0-9\-_.~+/]{16,}=*`,
		replacement: "${1}[REDACTED]",
	},
	{
		name:        "rapidapi_key",
		pattern:     `(?i)(x-rapidapi-key["':=\s]+)[A-Za-z0-9]{16,}`,
		replacement: "${1}[REDACTED]",
	},
	{
		name:        "openai_secret_key",
		pattern:     `sk-[A-Za-z0-9]{20,}`,
		replacement: "[REDACTED]",
	},
	{
		name:        "jwt_like_token",
		pattern:     `eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`,
		replacement: "[REDACTED]",
	},
	{
		name:        "generic_key_value",
		pattern:     `(?i)((?:api[_-]?key|secret|password|token)["':=\s]+)[A-Za-z0-9\-_./+]{12,}`,
		replacement: "${1}[REDACTED]",
	},
}

func compileBuiltinPatterns() []*CompiledPattern {
	out := make([]*CompiledPattern, 0, len(builtinPatterns))
	for _, p := range builtinPatterns {
		out = append(out, &CompiledPattern{
			Name:        p.name,
			Regex:       regexp.MustCompile(p.pattern),
			Replacement: p.replacement,
		})
	}
	return out
}
