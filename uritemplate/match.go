package uritemplate

import (
	"net/url"
	"strings"
)

// Match binds the template's variables against a concrete URI. It reports
// false when the structure differs: a literal mismatch, a segment count
// mismatch, or a prefix variable whose segment is not exactly its length.
// Declared query variables present in the URI's query string are merged in;
// undeclared query keys are ignored.
func (t *Template) Match(uri string) (map[string]string, bool) {
	path, rawQuery, _ := strings.Cut(uri, "?")
	parts := splitPath(path)
	if len(parts) != len(t.segments) {
		return nil, false
	}

	out := make(map[string]string, len(t.vars))
	for i, seg := range t.segments {
		part := parts[i]
		switch s := seg.(type) {
		case Literal:
			if string(s) != part {
				return nil, false
			}
		case Variable:
			out[s.Name] = part
		case PrefixVariable:
			if len(part) != s.Length {
				return nil, false
			}
			out[s.Name] = part
		}
	}

	if t.query != nil && rawQuery != "" {
		declared := make(map[string]struct{}, len(t.query.Names))
		for _, name := range t.query.Names {
			declared[name] = struct{}{}
		}
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			key, err := url.QueryUnescape(k)
			if err != nil {
				continue
			}
			if _, ok := declared[key]; !ok {
				continue
			}
			val, err := url.QueryUnescape(v)
			if err != nil {
				continue
			}
			out[key] = val
		}
	}

	return out, true
}
