package s3put

import (
	"regexp"
	"strings"
)

// wildcard marks a specifier as a list of name patterns.
const wildcard = "*."

// namePattern matches directory entry names against one `*.ext` pattern.
type namePattern struct {
	raw string
	re  *regexp.Regexp
}

func isPatternSpecifier(specifier string) bool {
	return strings.Contains(specifier, wildcard)
}

// parsePatterns splits a comma-separated specifier into patterns, in order.
// Empty patterns are skipped.
func parsePatterns(specifier string) (patterns []namePattern) {
	for _, raw := range strings.Split(specifier, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		patterns = append(patterns, newNamePattern(raw))
	}
	return
}

// newNamePattern compiles raw. The text after the last `*.` must end the
// name, preceded by a dot; the text before it must appear somewhere before
// that dot. A pattern without `*.` must end the name. Everything else is
// literal.
func newNamePattern(raw string) namePattern {
	i := strings.LastIndex(raw, wildcard)
	if i < 0 {
		return namePattern{raw: raw, re: regexp.MustCompile(regexp.QuoteMeta(raw) + "$")}
	}
	prefix, ext := raw[:i], raw[i+len(wildcard):]
	return namePattern{
		raw: raw,
		re:  regexp.MustCompile(regexp.QuoteMeta(prefix) + `.*\.` + regexp.QuoteMeta(ext) + "$"),
	}
}

func (p namePattern) Match(name string) bool {
	return p.re.MatchString(name)
}

func (p namePattern) String() string {
	return p.raw
}
