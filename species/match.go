package species

import (
	"path"
	"regexp"
	"strings"
)

// DefaultDomain is prepended to codes and patterns that carry no domain.
const DefaultDomain = "game"

// CodePattern matches entity codes. Patterns use '*' wildcards
// ("sheep-ram-*", "game:goat-*"); a leading '@' switches to a regular
// expression matched against the full domain:code string.
type CodePattern struct {
	raw   string
	glob  string
	regex *regexp.Regexp
}

// ParsePattern compiles a code pattern.
func ParsePattern(p string) (CodePattern, error) {
	cp := CodePattern{raw: p}
	if rest, ok := strings.CutPrefix(p, "@"); ok {
		re, err := regexp.Compile("^(?:" + rest + ")$")
		if err != nil {
			return cp, err
		}
		cp.regex = re
		return cp, nil
	}
	cp.glob = qualify(p)
	if _, err := path.Match(cp.glob, ""); err != nil {
		return cp, err
	}
	return cp, nil
}

// Match reports whether code matches the pattern.
func (p CodePattern) Match(code string) bool {
	code = qualify(code)
	if p.regex != nil {
		return p.regex.MatchString(code)
	}
	ok, _ := path.Match(p.glob, code)
	return ok
}

func (p CodePattern) String() string {
	return p.raw
}

// SameCode reports whether two codes name the same entity type once domains
// are made explicit.
func SameCode(a, b string) bool {
	return qualify(a) == qualify(b)
}

func qualify(code string) string {
	if strings.Contains(code, ":") {
		return code
	}
	return DefaultDomain + ":" + code
}
