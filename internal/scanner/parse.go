package scanner

import (
	"strings"
)

// ParseResponse extracts the payload from model output. Code fences and
// surrounding quotes are removed; an empty reply or NONE yields ErrNoCode.
func ParseResponse(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop a language tag on the opening fence.
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	for _, q := range []string{`"`, "'", "`"} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}

	if s == "" || strings.EqualFold(strings.TrimSuffix(s, "."), "NONE") {
		return "", ErrNoCode
	}
	return s, nil
}
